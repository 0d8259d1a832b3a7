package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain/entity"
)

// OpenSessionRequest body para POST /api/registers/:storeID/sessions.
type OpenSessionRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount"`
}

// RecordCashMovementRequest body para POST /api/registers/sessions/:sessionID/movements.
type RecordCashMovementRequest struct {
	Category       string          `json:"category"` // sale | removal | addition | refund
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// CloseSessionRequest body para POST /api/registers/sessions/:sessionID/close.
type CloseSessionRequest struct {
	CountedAmount decimal.Decimal `json:"counted_amount"`
}

// SessionResponse representación HTTP de una sesión de caja.
type SessionResponse struct {
	ID            string           `json:"id"`
	StoreID       string           `json:"store_id"`
	Status        string           `json:"status"`
	OpeningAmount decimal.Decimal  `json:"opening_amount"`
	SystemBalance decimal.Decimal  `json:"system_balance"`
	ClosingAmount *decimal.Decimal `json:"closing_amount,omitempty"`
	Difference    *decimal.Decimal `json:"difference,omitempty"`
	OpenedAt      time.Time        `json:"opened_at"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
}

// NewSessionResponse mapea la entidad a su DTO.
func NewSessionResponse(s *entity.RegisterSession) SessionResponse {
	return SessionResponse{
		ID:            s.ID,
		StoreID:       s.StoreID,
		Status:        string(s.Status),
		OpeningAmount: s.OpeningAmount,
		SystemBalance: s.SystemBalance,
		ClosingAmount: s.ClosingAmount,
		Difference:    s.Difference,
		OpenedAt:      s.OpenedAt,
		ClosedAt:      s.ClosedAt,
	}
}

// CashMovementResponse representación HTTP de un movimiento de caja.
type CashMovementResponse struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	CreatedBy string          `json:"created_by"`
}

// NewCashMovementResponse mapea la entidad a su DTO.
func NewCashMovementResponse(m *entity.CashMovement) CashMovementResponse {
	return CashMovementResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Category:  string(m.Category),
		Amount:    m.Amount,
		Reason:    m.Reason,
		Reference: m.Reference,
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

// RecordCashMovementResponse movimiento persistido más el balance resultante.
type RecordCashMovementResponse struct {
	Movement  CashMovementResponse `json:"movement"`
	Balance   decimal.Decimal      `json:"balance"`
	Duplicate bool                 `json:"duplicate,omitempty"`
}

// VerifyResponse resultado de la verificación de balance de un destino.
type VerifyResponse struct {
	TargetID string          `json:"target_id"`
	OK       bool            `json:"ok"`
	Expected decimal.Decimal `json:"expected"` // recomputado desde movimientos
	Actual   decimal.Decimal `json:"actual"`   // balance cacheado
}
