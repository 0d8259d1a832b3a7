package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain/entity"
)

// SessionRepository define el puerto de persistencia para sesiones de caja.
// Los métodos Get* devuelven (nil, nil) si la fila no existe.
type SessionRepository interface {
	// Create inserta la sesión. Si la tienda ya tiene una sesión abierta
	// (índice único parcial) devuelve domain.ErrSessionAlreadyOpen.
	Create(session *entity.RegisterSession) error
	GetByID(id string) (*entity.RegisterSession, error)
	// GetForUpdate bloquea la fila de la sesión (SELECT ... FOR UPDATE):
	// es el punto de serialización por destino del ledger de caja.
	GetForUpdate(id string) (*entity.RegisterSession, error)
	GetOpenByStore(storeID string) (*entity.RegisterSession, error)
	// UpdateBalance reescribe el balance derivado. Solo lo invoca el servicio
	// de ledger dentro de la transacción que insertó el movimiento.
	UpdateBalance(id string, balance decimal.Decimal) error
	// Close marca la sesión como cerrada con monto contado y diferencia.
	Close(id string, counted, difference decimal.Decimal, closedBy string, closedAt time.Time) error
	ListOpen() ([]*entity.RegisterSession, error)
	ListByStore(storeID string, limit, offset int) ([]*entity.RegisterSession, error)
}
