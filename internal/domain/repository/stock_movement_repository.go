package repository

import (
	"time"

	"github.com/comandera/backoffice-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para movimientos de
// stock. Append-only, igual que el de caja.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	// GetByIdempotencyKey está acotado al destino, igual que en caja.
	GetByIdempotencyKey(storeID, variantID, key string) (*entity.StockMovement, error)
	// ListByTarget lista paginado, descendente por fecha de creación.
	ListByTarget(storeID, variantID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// ListAllByTarget devuelve todos los movimientos del par, para recomputar.
	ListAllByTarget(storeID, variantID string) ([]*entity.StockMovement, error)
}
