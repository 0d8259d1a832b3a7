package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías de movimiento de caja. "opening" y "closing" solo los emite el
// ciclo de vida de la sesión (abrir/cerrar); el resto se registra a demanda.
type CashCategory string

const (
	CashOpening  CashCategory = "opening"  // apertura de sesión
	CashSale     CashCategory = "sale"     // venta en efectivo
	CashAddition CashCategory = "addition" // ingreso manual
	CashRemoval  CashCategory = "removal"  // retiro manual
	CashRefund   CashCategory = "refund"   // devolución al cliente
	CashClosing  CashCategory = "closing"  // cierre: registra el monto contado, no un delta
)

// CashMovement es un hecho inmutable del ledger de caja. El monto es siempre
// positivo; el signo lo aporta la categoría. Nunca se actualiza ni se borra:
// las correcciones son movimientos compensatorios nuevos.
type CashMovement struct {
	ID             string
	SessionID      string
	TenantID       string
	Category       CashCategory
	Amount         decimal.Decimal
	Reason         string
	Reference      string // documento externo (venta, nota, etc.)
	IdempotencyKey string
	CreatedAt      time.Time
	CreatedBy      string
}

// Recordable indica si la categoría puede registrarse sobre una sesión abierta.
// opening/closing quedan reservados a abrir/cerrar.
func (c CashCategory) Recordable() bool {
	switch c {
	case CashSale, CashAddition, CashRemoval, CashRefund:
		return true
	}
	return false
}
