package memory

import (
	"context"

	"github.com/comandera/backoffice-api/internal/application/register"
	"github.com/comandera/backoffice-api/internal/application/stock"
	"github.com/comandera/backoffice-api/internal/domain/repository"
)

// RegisterTxRunner implementa register.TxRunner sobre el almacén en memoria.
// No hay rollback real: los casos de uso validan antes de escribir, así que
// una transacción que falla no deja escrituras a medias en los tests.
type RegisterTxRunner struct {
	s *Store
}

var _ register.TxRunner = (*RegisterTxRunner)(nil)

func NewRegisterTxRunner(s *Store) *RegisterTxRunner {
	return &RegisterTxRunner{s: s}
}

func (t *RegisterTxRunner) Run(ctx context.Context, fn func(
	sessions repository.SessionRepository,
	movements repository.CashMovementRepository,
) error) error {
	locks := newLockSet()
	defer locks.release()
	return fn(&SessionRepo{s: t.s, locks: locks}, &CashMovementRepo{s: t.s})
}

// StockTxRunner implementa stock.TxRunner sobre el almacén en memoria.
type StockTxRunner struct {
	s *Store
}

var _ stock.TxRunner = (*StockTxRunner)(nil)

func NewStockTxRunner(s *Store) *StockTxRunner {
	return &StockTxRunner{s: s}
}

func (t *StockTxRunner) Run(ctx context.Context, fn func(
	balances repository.StockBalanceRepository,
	movements repository.StockMovementRepository,
) error) error {
	locks := newLockSet()
	defer locks.release()
	return fn(&StockBalanceRepo{s: t.s, locks: locks}, &StockMovementRepo{s: t.s})
}
