package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/comandera/backoffice-api/internal/application/dto"
	"github.com/comandera/backoffice-api/internal/application/register"
	"github.com/comandera/backoffice-api/internal/domain/entity"
)

// RegisterHandler maneja las peticiones HTTP del ledger de caja (protegido).
type RegisterHandler struct {
	uc *register.LedgerUseCase
}

// NewRegisterHandler construye el handler.
func NewRegisterHandler(uc *register.LedgerUseCase) *RegisterHandler {
	return &RegisterHandler{uc: uc}
}

// OpenSession abre una sesión de caja para la tienda.
// POST /api/registers/:storeID/sessions
func (h *RegisterHandler) OpenSession(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.OpenSessionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sess, err := h.uc.OpenSession(c.Context(), register.OpenInput{
		TenantID:      tenantID,
		UserID:        userID,
		StoreID:       c.Params("storeID"),
		OpeningAmount: in.OpeningAmount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSessionResponse(sess))
}

// RecordMovement registra un movimiento sobre una sesión abierta.
// POST /api/registers/sessions/:sessionID/movements
func (h *RegisterHandler) RecordMovement(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RecordCashMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	key := in.IdempotencyKey
	if h := c.Get("X-Idempotency-Key"); h != "" {
		key = h
	}
	res, err := h.uc.RecordMovement(c.Context(), register.RecordInput{
		TenantID:       tenantID,
		UserID:         userID,
		SessionID:      c.Params("sessionID"),
		Category:       entity.CashCategory(in.Category),
		Amount:         in.Amount,
		Reason:         in.Reason,
		Reference:      in.Reference,
		IdempotencyKey: key,
	})
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusCreated
	if res.Duplicate {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.RecordCashMovementResponse{
		Movement:  dto.NewCashMovementResponse(res.Movement),
		Balance:   res.NewBalance,
		Duplicate: res.Duplicate,
	})
}

// CloseSession cierra la sesión con el monto contado.
// POST /api/registers/sessions/:sessionID/close
func (h *RegisterHandler) CloseSession(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CloseSessionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.CloseSession(c.Context(), register.CloseInput{
		TenantID:      tenantID,
		UserID:        userID,
		SessionID:     c.Params("sessionID"),
		CountedAmount: in.CountedAmount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSessionResponse(res.Session))
}

// GetSession devuelve una sesión por id.
// GET /api/registers/sessions/:sessionID
func (h *RegisterHandler) GetSession(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	sess, err := h.uc.GetSession(tenantID, c.Params("sessionID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSessionResponse(sess))
}

// CurrentSession devuelve la sesión abierta de la tienda, si existe.
// GET /api/registers/:storeID/sessions/current
func (h *RegisterHandler) CurrentSession(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	sess, err := h.uc.CurrentSession(tenantID, c.Params("storeID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSessionResponse(sess))
}

// ListSessions lista el historial de sesiones de la tienda.
// GET /api/registers/:storeID/sessions
func (h *RegisterHandler) ListSessions(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	page := parsePage(c)
	sessions, err := h.uc.ListSessions(tenantID, c.Params("storeID"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, dto.NewSessionResponse(s))
	}
	return c.JSON(fiber.Map{"total": len(out), "sessions": out})
}

// ListMovements lista los movimientos de la sesión, descendentes.
// GET /api/registers/sessions/:sessionID/movements
func (h *RegisterHandler) ListMovements(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	page := parsePage(c)
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_RANGE", Message: "from/to deben ser RFC 3339"})
	}
	movs, err := h.uc.ListMovements(tenantID, c.Params("sessionID"), from, to, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.CashMovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.NewCashMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// VerifyBalance recomputa el balance de la sesión y lo compara con el cacheado.
// GET /api/registers/sessions/:sessionID/verify
func (h *RegisterHandler) VerifyBalance(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	v, err := h.uc.VerifyBalance(tenantID, c.Params("sessionID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.VerifyResponse{TargetID: v.TargetID, OK: v.OK, Expected: v.Expected, Actual: v.Actual})
}

// parsePage lee limit/offset de la query con defaults.
func parsePage(c *fiber.Ctx) dto.PageRequest {
	var page dto.PageRequest
	_ = c.QueryParser(&page)
	page.DefaultPage()
	return page
}

// parseRange lee el filtro opcional from/to (RFC 3339) de la query.
func parseRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}
