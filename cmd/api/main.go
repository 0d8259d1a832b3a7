package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/comandera/backoffice-api/internal/application/register"
	"github.com/comandera/backoffice-api/internal/application/stock"
	"github.com/comandera/backoffice-api/internal/infrastructure/memory"
	"github.com/comandera/backoffice-api/internal/infrastructure/postgres"
	httpRouter "github.com/comandera/backoffice-api/internal/interfaces/http"
	"github.com/comandera/backoffice-api/pkg/config"
	"github.com/comandera/backoffice-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		registerUC *register.LedgerUseCase
		stockUC    *stock.LedgerUseCase
	)
	if cfg.DB.Driver == "memory" {
		// Almacén en memoria: desarrollo sin base de datos. Todo se pierde
		// al apagar el proceso.
		store := memory.NewStore()
		registerUC = register.NewLedgerUseCase(
			memory.NewRegisterTxRunner(store),
			memory.NewStoreRepository(store),
			memory.NewSessionRepository(store),
			memory.NewCashMovementRepository(store),
			log,
		)
		stockUC = stock.NewLedgerUseCase(
			memory.NewStockTxRunner(store),
			memory.NewStoreRepository(store),
			memory.NewVariantRepository(store),
			memory.NewStockBalanceRepository(store),
			memory.NewStockMovementRepository(store),
			log,
		)
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		registerUC = register.NewLedgerUseCase(
			postgres.NewRegisterTxRunner(pool),
			postgres.NewStoreRepository(pool),
			postgres.NewSessionRepository(pool),
			postgres.NewCashMovementRepository(pool),
			log,
		)
		stockUC = stock.NewLedgerUseCase(
			postgres.NewStockTxRunner(pool),
			postgres.NewStoreRepository(pool),
			postgres.NewVariantRepository(pool),
			postgres.NewStockBalanceRepository(pool),
			postgres.NewStockMovementRepository(pool),
			log,
		)
	}

	// Repara al arranque sesiones abiertas con balance desincronizado.
	if err := registerUC.ReconcileOpenSessions(ctx); err != nil {
		log.Fatal().Err(err).Msg("reconciliación inicial de sesiones")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		RegisterUC: registerUC,
		StockUC:    stockUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
