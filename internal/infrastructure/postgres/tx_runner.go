package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comandera/backoffice-api/internal/application/register"
	"github.com/comandera/backoffice-api/internal/application/stock"
	"github.com/comandera/backoffice-api/internal/domain/repository"
)

// Ensure TxRunner implements register.TxRunner and stock.TxRunner.
var _ register.TxRunner = (*RegisterTxRunner)(nil)
var _ stock.TxRunner = (*StockTxRunner)(nil)

// RegisterTxRunner ejecuta callbacks del ledger de caja dentro de una
// transacción PostgreSQL. Los fallos transitorios de concurrencia salen ya
// clasificados como domain.ErrConcurrentModification.
type RegisterTxRunner struct {
	pool *pgxpool.Pool
}

// NewRegisterTxRunner construye el runner con el pool.
func NewRegisterTxRunner(pool *pgxpool.Pool) *RegisterTxRunner {
	return &RegisterTxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *RegisterTxRunner) Run(ctx context.Context, fn func(
	sessions repository.SessionRepository,
	movements repository.CashMovementRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewSessionRepository(tx), NewCashMovementRepository(tx)); err != nil {
		return classifyTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// StockTxRunner ejecuta callbacks del ledger de stock dentro de una
// transacción PostgreSQL.
type StockTxRunner struct {
	pool *pgxpool.Pool
}

// NewStockTxRunner construye el runner con el pool.
func NewStockTxRunner(pool *pgxpool.Pool) *StockTxRunner {
	return &StockTxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *StockTxRunner) Run(ctx context.Context, fn func(
	balances repository.StockBalanceRepository,
	movements repository.StockMovementRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStockBalanceRepository(tx), NewStockMovementRepository(tx)); err != nil {
		return classifyTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
