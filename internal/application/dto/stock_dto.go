package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain/entity"
)

// RecordStockMovementRequest body para POST /api/stock/movements.
type RecordStockMovementRequest struct {
	StoreID        string           `json:"store_id"`
	VariantID      string           `json:"variant_id"`
	Category       string           `json:"category"` // inbound | outbound | adjustment_increase | adjustment_decrease | sale_consumption | sale_return
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"` // obligatorio en inbound
	Reason         string           `json:"reason,omitempty"`
	Reference      string           `json:"reference,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// StockMovementResponse representación HTTP de un movimiento de stock.
type StockMovementResponse struct {
	ID        string           `json:"id"`
	StoreID   string           `json:"store_id"`
	VariantID string           `json:"variant_id"`
	Category  string           `json:"category"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Reference string           `json:"reference,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	CreatedBy string           `json:"created_by"`
}

// NewStockMovementResponse mapea la entidad a su DTO.
func NewStockMovementResponse(m *entity.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:        m.ID,
		StoreID:   m.StoreID,
		VariantID: m.VariantID,
		Category:  string(m.Category),
		Quantity:  m.Quantity,
		UnitCost:  m.UnitCost,
		Reason:    m.Reason,
		Reference: m.Reference,
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

// StockBalanceResponse stock actual de una variante en una tienda.
type StockBalanceResponse struct {
	StoreID        string          `json:"store_id"`
	VariantID      string          `json:"variant_id"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	AvgUnitCost    decimal.Decimal `json:"avg_unit_cost"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewStockBalanceResponse mapea la entidad a su DTO.
func NewStockBalanceResponse(b *entity.StockBalance) StockBalanceResponse {
	return StockBalanceResponse{
		StoreID:        b.StoreID,
		VariantID:      b.VariantID,
		QuantityOnHand: b.QuantityOnHand,
		AvgUnitCost:    b.AvgUnitCost,
		UpdatedAt:      b.UpdatedAt,
	}
}

// RecordStockMovementResponse movimiento persistido más el stock resultante.
type RecordStockMovementResponse struct {
	Movement  StockMovementResponse `json:"movement"`
	Balance   StockBalanceResponse  `json:"balance"`
	Duplicate bool                  `json:"duplicate,omitempty"`
}
