package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/comandera/backoffice-api/internal/application/dto"
	"github.com/comandera/backoffice-api/internal/application/stock"
	"github.com/comandera/backoffice-api/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del ledger de stock (protegido).
type StockHandler struct {
	uc *stock.LedgerUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.LedgerUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// RecordMovement registra un movimiento de stock sobre (tienda, variante).
// POST /api/stock/movements
func (h *StockHandler) RecordMovement(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RecordStockMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	key := in.IdempotencyKey
	if h := c.Get("X-Idempotency-Key"); h != "" {
		key = h
	}
	res, err := h.uc.RecordMovement(c.Context(), stock.RecordInput{
		TenantID:       tenantID,
		UserID:         userID,
		StoreID:        in.StoreID,
		VariantID:      in.VariantID,
		Category:       entity.StockCategory(in.Category),
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
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
	return c.Status(status).JSON(dto.RecordStockMovementResponse{
		Movement:  dto.NewStockMovementResponse(res.Movement),
		Balance:   dto.NewStockBalanceResponse(res.Balance),
		Duplicate: res.Duplicate,
	})
}

// ListBalances lista la caché de stock de una tienda.
// GET /api/stock/:storeID/balances
func (h *StockHandler) ListBalances(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	page := parsePage(c)
	balances, err := h.uc.ListBalances(tenantID, c.Params("storeID"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockBalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, dto.NewStockBalanceResponse(b))
	}
	return c.JSON(fiber.Map{"total": len(out), "balances": out})
}

// GetBalance devuelve el stock actual de una variante en una tienda.
// GET /api/stock/:storeID/:variantID
func (h *StockHandler) GetBalance(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	bal, err := h.uc.GetBalance(tenantID, c.Params("storeID"), c.Params("variantID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewStockBalanceResponse(bal))
}

// ListMovements lista los movimientos del par, descendentes.
// GET /api/stock/:storeID/:variantID/movements
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	page := parsePage(c)
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_RANGE", Message: "from/to deben ser RFC 3339"})
	}
	movs, err := h.uc.ListMovements(tenantID, c.Params("storeID"), c.Params("variantID"), from, to, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.NewStockMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// VerifyBalance recomputa la cantidad en mano y la compara con la caché.
// GET /api/stock/:storeID/:variantID/verify
func (h *StockHandler) VerifyBalance(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	v, err := h.uc.VerifyBalance(tenantID, c.Params("storeID"), c.Params("variantID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.VerifyResponse{TargetID: v.StoreID + "/" + v.VariantID, OK: v.OK, Expected: v.Expected, Actual: v.Actual})
}
