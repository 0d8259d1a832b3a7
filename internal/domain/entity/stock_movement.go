package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías de movimiento de stock. El ledger de stock no tiene sesiones:
// el destino (tienda, variante) está siempre abierto.
type StockCategory string

const (
	StockInbound            StockCategory = "inbound"             // recepción de mercancía
	StockOutbound           StockCategory = "outbound"            // salida (merma, traslado, baja)
	StockAdjustmentIncrease StockCategory = "adjustment_increase" // ajuste por conteo físico (+)
	StockAdjustmentDecrease StockCategory = "adjustment_decrease" // ajuste por conteo físico (−)
	StockSaleConsumption    StockCategory = "sale_consumption"    // consumo por venta
	StockSaleReturn         StockCategory = "sale_return"         // devolución de venta
)

// StockMovement es un hecho inmutable del ledger de stock. La cantidad es
// siempre positiva; el signo lo aporta la categoría.
type StockMovement struct {
	ID             string
	TenantID       string
	StoreID        string
	VariantID      string
	Category       StockCategory
	Quantity       decimal.Decimal
	UnitCost       *decimal.Decimal // obligatorio en inbound; en salidas, costo promedio al momento
	Reason         string
	Reference      string
	IdempotencyKey string
	CreatedAt      time.Time
	CreatedBy      string
}
