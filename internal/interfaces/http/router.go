package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/comandera/backoffice-api/internal/application/register"
	"github.com/comandera/backoffice-api/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RegisterUC *register.LedgerUseCase
	StockUC    *stock.LedgerUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Ledger de caja. Las rutas /sessions/... van primero para que
	// ":storeID" no capture el literal "sessions".
	registers := protected.Group("/registers")
	registerHandler := NewRegisterHandler(deps.RegisterUC)
	registers.Get("/sessions/:sessionID/movements", registerHandler.ListMovements)
	registers.Post("/sessions/:sessionID/movements", registerHandler.RecordMovement)
	registers.Post("/sessions/:sessionID/close", registerHandler.CloseSession)
	registers.Get("/sessions/:sessionID/verify", registerHandler.VerifyBalance)
	registers.Get("/sessions/:sessionID", registerHandler.GetSession)
	registers.Post("/:storeID/sessions", registerHandler.OpenSession)
	registers.Get("/:storeID/sessions/current", registerHandler.CurrentSession)
	registers.Get("/:storeID/sessions", registerHandler.ListSessions)

	// Ledger de stock. "/movements" y "/:storeID/balances" van antes de
	// "/:storeID/:variantID" por la misma razón.
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC)
	stockGroup.Post("/movements", stockHandler.RecordMovement)
	stockGroup.Get("/:storeID/balances", stockHandler.ListBalances)
	stockGroup.Get("/:storeID/:variantID/movements", stockHandler.ListMovements)
	stockGroup.Get("/:storeID/:variantID/verify", stockHandler.VerifyBalance)
	stockGroup.Get("/:storeID/:variantID", stockHandler.GetBalance)
}
