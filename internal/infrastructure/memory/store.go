// Package memory implementa los puertos de persistencia del ledger en memoria,
// reproduciendo la disciplina de bloqueo por fila de PostgreSQL con un mutex
// por destino. Lo usan los tests (incluidos los de concurrencia) y el modo de
// desarrollo sin base de datos.
package memory

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain"
	"github.com/comandera/backoffice-api/internal/domain/entity"
)

// Store contiene todo el estado en memoria. Las operaciones de mapa se
// protegen con mu; la serialización por destino (el equivalente del
// SELECT FOR UPDATE) la dan los mutex de targetLocks, que una transacción
// retiene hasta su cierre.
type Store struct {
	mu sync.Mutex

	sessions      map[string]*entity.RegisterSession
	cashMovements []*entity.CashMovement
	stockBalances map[string]*entity.StockBalance
	stockMovs     []*entity.StockMovement
	stores        map[string]*entity.Store
	variants      map[string]*entity.ProductVariant

	targetLocks map[string]*sync.Mutex
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		sessions:      make(map[string]*entity.RegisterSession),
		stockBalances: make(map[string]*entity.StockBalance),
		stores:        make(map[string]*entity.Store),
		variants:      make(map[string]*entity.ProductVariant),
		targetLocks:   make(map[string]*sync.Mutex),
	}
}

// SeedStore registra una tienda (datos maestros para tests y modo dev).
func (s *Store) SeedStore(store *entity.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[store.ID] = store
}

// SeedVariant registra una variante de producto.
func (s *Store) SeedVariant(v *entity.ProductVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[v.ID] = v
}

func (s *Store) targetLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.targetLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.targetLocks[key] = l
	}
	return l
}

func stockKey(storeID, variantID string) string {
	return storeID + "/" + variantID
}

// ── lecturas de datos maestros ────────────────────────────────────────────────

func (s *Store) getStore(id string) *entity.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores[id]
}

func (s *Store) getVariant(id string) *entity.ProductVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variants[id]
}

// ── sesiones ──────────────────────────────────────────────────────────────────

func (s *Store) getSession(id string) *entity.RegisterSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		cp := *sess
		return &cp
	}
	return nil
}

func (s *Store) getOpenByStore(storeID string) *entity.RegisterSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.StoreID == storeID && sess.Status == entity.SessionOpen {
			cp := *sess
			return &cp
		}
	}
	return nil
}

func (s *Store) createSession(session *entity.RegisterSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Equivalente del índice único parcial: una sesión abierta por tienda.
	for _, existing := range s.sessions {
		if existing.StoreID == session.StoreID && existing.Status == entity.SessionOpen {
			return domain.ErrSessionAlreadyOpen
		}
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *Store) updateSessionBalance(id string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrTargetNotFound
	}
	sess.SystemBalance = balance
	return nil
}

func (s *Store) closeSession(id string, counted, difference decimal.Decimal, closedBy string, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Status != entity.SessionOpen {
		return domain.ErrSessionClosed
	}
	sess.Status = entity.SessionClosed
	sess.ClosingAmount = &counted
	sess.Difference = &difference
	sess.ClosedBy = &closedBy
	sess.ClosedAt = &closedAt
	return nil
}

func (s *Store) listOpenSessions() []*entity.RegisterSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*entity.RegisterSession
	for _, sess := range s.sessions {
		if sess.Status == entity.SessionOpen {
			cp := *sess
			list = append(list, &cp)
		}
	}
	return list
}

func (s *Store) listSessionsByStore(storeID string, limit, offset int) []*entity.RegisterSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*entity.RegisterSession
	for _, sess := range s.sessions {
		if sess.StoreID == storeID {
			cp := *sess
			all = append(all, &cp)
		}
	}
	sortSessionsDesc(all)
	return paginate(all, limit, offset)
}

// ── movimientos de caja ───────────────────────────────────────────────────────

func (s *Store) appendCashMovement(m *entity.CashMovement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.cashMovements = append(s.cashMovements, &cp)
}

func (s *Store) cashByIdempotencyKey(sessionID, key string) *entity.CashMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.cashMovements {
		if m.SessionID == sessionID && m.IdempotencyKey == key {
			cp := *m
			return &cp
		}
	}
	return nil
}

func (s *Store) listCashBySession(sessionID string, from, to *time.Time) []*entity.CashMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*entity.CashMovement
	for _, m := range s.cashMovements {
		if m.SessionID != sessionID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		cp := *m
		list = append(list, &cp)
	}
	return list
}

// ── stock ─────────────────────────────────────────────────────────────────────

func (s *Store) getStockBalance(storeID, variantID string) *entity.StockBalance {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.stockBalances[stockKey(storeID, variantID)]; ok {
		cp := *b
		return &cp
	}
	return &entity.StockBalance{
		StoreID:        storeID,
		VariantID:      variantID,
		QuantityOnHand: decimal.Zero,
		AvgUnitCost:    decimal.Zero,
	}
}

func (s *Store) upsertStockBalance(b *entity.StockBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.stockBalances[stockKey(b.StoreID, b.VariantID)] = &cp
}

func (s *Store) listStockByStore(storeID string, limit, offset int) []*entity.StockBalance {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*entity.StockBalance
	for _, b := range s.stockBalances {
		if b.StoreID == storeID {
			cp := *b
			all = append(all, &cp)
		}
	}
	sortBalances(all)
	return paginate(all, limit, offset)
}

func (s *Store) appendStockMovement(m *entity.StockMovement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.stockMovs = append(s.stockMovs, &cp)
}

func (s *Store) stockByIdempotencyKey(storeID, variantID, key string) *entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.stockMovs {
		if m.StoreID == storeID && m.VariantID == variantID && m.IdempotencyKey == key {
			cp := *m
			return &cp
		}
	}
	return nil
}

func (s *Store) listStockByTarget(storeID, variantID string, from, to *time.Time) []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*entity.StockMovement
	for _, m := range s.stockMovs {
		if m.StoreID != storeID || m.VariantID != variantID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		cp := *m
		list = append(list, &cp)
	}
	return list
}
