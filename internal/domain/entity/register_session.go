package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado de una sesión de caja.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// RegisterSession es la fila cabecera (mutable) de una sesión de caja.
// SystemBalance es derivado: solo el servicio de ledger lo escribe, siempre
// dentro de la misma transacción que inserta el movimiento que lo altera.
// Al cerrar, el balance queda congelado en su valor previo al cierre.
type RegisterSession struct {
	ID            string
	TenantID      string
	StoreID       string
	OpenedBy      string
	OpeningAmount decimal.Decimal
	SystemBalance decimal.Decimal
	ClosingAmount *decimal.Decimal // monto contado al cierre
	Difference    *decimal.Decimal // contado − SystemBalance al cierre
	ClosedBy      *string
	Status        SessionStatus
	OpenedAt      time.Time
	ClosedAt      *time.Time
}

// IsOpen indica si la sesión admite movimientos.
func (s *RegisterSession) IsOpen() bool {
	return s.Status == SessionOpen
}
