package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain/entity"
	"github.com/comandera/backoffice-api/internal/domain/repository"
)

// lockSet registra los bloqueos por destino que una transacción retiene.
// GetForUpdate los adquiere; el runner los libera al terminar, igual que
// PostgreSQL libera los row locks al hacer commit o rollback.
type lockSet struct {
	held  map[string]*sync.Mutex
	order []string
}

func newLockSet() *lockSet {
	return &lockSet{held: make(map[string]*sync.Mutex)}
}

func (l *lockSet) acquire(key string, m *sync.Mutex) {
	if _, ok := l.held[key]; ok {
		return
	}
	m.Lock()
	l.held[key] = m
	l.order = append(l.order, key)
}

func (l *lockSet) release() {
	for i := len(l.order) - 1; i >= 0; i-- {
		l.held[l.order[i]].Unlock()
	}
	l.held = nil
	l.order = nil
}

// ── SessionRepo ───────────────────────────────────────────────────────────────

type SessionRepo struct {
	s     *Store
	locks *lockSet
}

var _ repository.SessionRepository = (*SessionRepo)(nil)

// NewSessionRepository devuelve el repositorio de sesiones para lecturas fuera
// de transacción. GetForUpdate solo serializa dentro de un TxRunner.
func NewSessionRepository(s *Store) *SessionRepo {
	return &SessionRepo{s: s}
}

func (r *SessionRepo) Create(session *entity.RegisterSession) error {
	return r.s.createSession(session)
}

func (r *SessionRepo) GetByID(id string) (*entity.RegisterSession, error) {
	return r.s.getSession(id), nil
}

func (r *SessionRepo) GetForUpdate(id string) (*entity.RegisterSession, error) {
	if r.locks != nil {
		r.locks.acquire("session/"+id, r.s.targetLock("session/"+id))
	}
	return r.s.getSession(id), nil
}

func (r *SessionRepo) GetOpenByStore(storeID string) (*entity.RegisterSession, error) {
	return r.s.getOpenByStore(storeID), nil
}

func (r *SessionRepo) UpdateBalance(id string, balance decimal.Decimal) error {
	return r.s.updateSessionBalance(id, balance)
}

func (r *SessionRepo) Close(id string, counted, difference decimal.Decimal, closedBy string, closedAt time.Time) error {
	return r.s.closeSession(id, counted, difference, closedBy, closedAt)
}

func (r *SessionRepo) ListOpen() ([]*entity.RegisterSession, error) {
	return r.s.listOpenSessions(), nil
}

func (r *SessionRepo) ListByStore(storeID string, limit, offset int) ([]*entity.RegisterSession, error) {
	return r.s.listSessionsByStore(storeID, limit, offset), nil
}

// ── CashMovementRepo ──────────────────────────────────────────────────────────

type CashMovementRepo struct {
	s *Store
}

var _ repository.CashMovementRepository = (*CashMovementRepo)(nil)

func NewCashMovementRepository(s *Store) *CashMovementRepo {
	return &CashMovementRepo{s: s}
}

func (r *CashMovementRepo) Create(movement *entity.CashMovement) error {
	r.s.appendCashMovement(movement)
	return nil
}

func (r *CashMovementRepo) GetByID(id string) (*entity.CashMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.cashMovements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *CashMovementRepo) GetByIdempotencyKey(sessionID, key string) (*entity.CashMovement, error) {
	return r.s.cashByIdempotencyKey(sessionID, key), nil
}

func (r *CashMovementRepo) ListBySession(sessionID string, from, to *time.Time, limit, offset int) ([]*entity.CashMovement, error) {
	list := r.s.listCashBySession(sessionID, from, to)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return paginate(list, limit, offset), nil
}

func (r *CashMovementRepo) ListAllBySession(sessionID string) ([]*entity.CashMovement, error) {
	list := r.s.listCashBySession(sessionID, nil, nil)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// ── StockBalanceRepo ──────────────────────────────────────────────────────────

type StockBalanceRepo struct {
	s     *Store
	locks *lockSet
}

var _ repository.StockBalanceRepository = (*StockBalanceRepo)(nil)

func NewStockBalanceRepository(s *Store) *StockBalanceRepo {
	return &StockBalanceRepo{s: s}
}

func (r *StockBalanceRepo) Get(storeID, variantID string) (*entity.StockBalance, error) {
	return r.s.getStockBalance(storeID, variantID), nil
}

func (r *StockBalanceRepo) GetForUpdate(tenantID, storeID, variantID string) (*entity.StockBalance, error) {
	key := "stock/" + stockKey(storeID, variantID)
	if r.locks != nil {
		r.locks.acquire(key, r.s.targetLock(key))
	}
	// Siembra de la fila en cero, como el INSERT ... ON CONFLICT DO NOTHING.
	r.s.mu.Lock()
	if _, ok := r.s.stockBalances[stockKey(storeID, variantID)]; !ok {
		r.s.stockBalances[stockKey(storeID, variantID)] = &entity.StockBalance{
			TenantID:       tenantID,
			StoreID:        storeID,
			VariantID:      variantID,
			QuantityOnHand: decimal.Zero,
			AvgUnitCost:    decimal.Zero,
			UpdatedAt:      time.Now(),
		}
	}
	r.s.mu.Unlock()
	return r.s.getStockBalance(storeID, variantID), nil
}

func (r *StockBalanceRepo) Upsert(balance *entity.StockBalance) error {
	r.s.upsertStockBalance(balance)
	return nil
}

func (r *StockBalanceRepo) ListByStore(storeID string, limit, offset int) ([]*entity.StockBalance, error) {
	return r.s.listStockByStore(storeID, limit, offset), nil
}

// ── StockMovementRepo ─────────────────────────────────────────────────────────

type StockMovementRepo struct {
	s *Store
}

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

func NewStockMovementRepository(s *Store) *StockMovementRepo {
	return &StockMovementRepo{s: s}
}

func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	r.s.appendStockMovement(movement)
	return nil
}

func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.stockMovs {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *StockMovementRepo) GetByIdempotencyKey(storeID, variantID, key string) (*entity.StockMovement, error) {
	return r.s.stockByIdempotencyKey(storeID, variantID, key), nil
}

func (r *StockMovementRepo) ListByTarget(storeID, variantID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	list := r.s.listStockByTarget(storeID, variantID, from, to)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return paginate(list, limit, offset), nil
}

func (r *StockMovementRepo) ListAllByTarget(storeID, variantID string) ([]*entity.StockMovement, error) {
	list := r.s.listStockByTarget(storeID, variantID, nil, nil)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// ── StoreRepo / VariantRepo ───────────────────────────────────────────────────

type StoreRepo struct{ s *Store }

var _ repository.StoreRepository = (*StoreRepo)(nil)

func NewStoreRepository(s *Store) *StoreRepo { return &StoreRepo{s: s} }

func (r *StoreRepo) GetByID(id string) (*entity.Store, error) {
	return r.s.getStore(id), nil
}

type VariantRepo struct{ s *Store }

var _ repository.VariantRepository = (*VariantRepo)(nil)

func NewVariantRepository(s *Store) *VariantRepo { return &VariantRepo{s: s} }

func (r *VariantRepo) GetByID(id string) (*entity.ProductVariant, error) {
	return r.s.getVariant(id), nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func sortSessionsDesc(list []*entity.RegisterSession) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].OpenedAt.After(list[j].OpenedAt)
	})
}

func sortBalances(list []*entity.StockBalance) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].VariantID < list[j].VariantID
	})
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
