package entity

import "time"

// Store representa una tienda/sucursal del tenant. El núcleo del ledger solo
// la usa para validar existencia y pertenencia del destino.
type Store struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}

// ProductVariant representa una variante de producto (SKU vendible). Igual que
// Store, aquí solo interesa como referencia de destino del ledger de stock.
type ProductVariant struct {
	ID        string
	TenantID  string
	SKU       string
	Name      string
	CreatedAt time.Time
}
