package repository

import (
	"time"

	"github.com/comandera/backoffice-api/internal/domain/entity"
)

// CashMovementRepository define el puerto de persistencia para movimientos de
// caja. La tabla es append-only: no hay Update ni Delete.
type CashMovementRepository interface {
	Create(movement *entity.CashMovement) error
	GetByID(id string) (*entity.CashMovement, error)
	// GetByIdempotencyKey devuelve el movimiento ya procesado para esa clave
	// dentro de la sesión, o (nil, nil) si la clave no se ha usado. La clave
	// está acotada al destino (índice único sobre session_id + clave).
	GetByIdempotencyKey(sessionID, key string) (*entity.CashMovement, error)
	// ListBySession lista paginado, descendente por fecha de creación.
	ListBySession(sessionID string, from, to *time.Time, limit, offset int) ([]*entity.CashMovement, error)
	// ListAllBySession devuelve todos los movimientos de la sesión, para la
	// recomputación de auditoría.
	ListAllBySession(sessionID string) ([]*entity.CashMovement, error)
}
