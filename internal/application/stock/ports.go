package stock

import (
	"context"

	"github.com/comandera/backoffice-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el insert del movimiento y el
// upsert de la caché de stock sean atómicos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		balances repository.StockBalanceRepository,
		movements repository.StockMovementRepository,
	) error) error
}
