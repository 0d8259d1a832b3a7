package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance es la caché denormalizada del stock de una variante en una
// tienda. Se upserta con el primer movimiento del par (tienda, variante) y
// solo el servicio de ledger la escribe, dentro de la misma transacción que
// inserta el movimiento.
type StockBalance struct {
	TenantID       string
	StoreID        string
	VariantID      string
	QuantityOnHand decimal.Decimal
	AvgUnitCost    decimal.Decimal // costo promedio ponderado
	UpdatedAt      time.Time
}
