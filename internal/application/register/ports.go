package register

import (
	"context"

	"github.com/comandera/backoffice-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el insert del movimiento y la
// actualización del balance de la sesión sean atómicos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		sessions repository.SessionRepository,
		movements repository.CashMovementRepository,
	) error) error
}
