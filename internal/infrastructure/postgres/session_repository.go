package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain"
	"github.com/comandera/backoffice-api/internal/domain/entity"
	"github.com/comandera/backoffice-api/internal/domain/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

const sessionColumns = `id, tenant_id, store_id, opened_by, opening_amount, system_balance,
		closing_amount, difference, closed_by, status, opened_at, closed_at`

// SessionRepo implementación de SessionRepository sobre PostgreSQL (usable con pool o tx).
type SessionRepo struct {
	q Querier
}

// NewSessionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSessionRepository(q Querier) *SessionRepo {
	return &SessionRepo{q: q}
}

// Create inserta la sesión. El índice único parcial uq_register_sessions_open
// (una sesión abierta por tienda) convierte la carrera de doble apertura en
// domain.ErrSessionAlreadyOpen.
func (r *SessionRepo) Create(session *entity.RegisterSession) error {
	query := `
		INSERT INTO register_sessions (id, tenant_id, store_id, opened_by, opening_amount, system_balance, status, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		session.ID, session.TenantID, session.StoreID, session.OpenedBy,
		session.OpeningAmount, session.SystemBalance, session.Status, session.OpenedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSessionAlreadyOpen
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByID obtiene una sesión por ID, o (nil, nil) si no existe.
func (r *SessionRepo) GetByID(id string) (*entity.RegisterSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM register_sessions WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate obtiene la sesión y bloquea la fila (SELECT FOR UPDATE).
func (r *SessionRepo) GetForUpdate(id string) (*entity.RegisterSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM register_sessions WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetOpenByStore devuelve la sesión abierta de la tienda, o (nil, nil).
func (r *SessionRepo) GetOpenByStore(storeID string) (*entity.RegisterSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM register_sessions WHERE store_id = $1 AND status = 'open'`
	return r.scanOne(r.q.QueryRow(context.Background(), query, storeID))
}

// UpdateBalance reescribe el balance derivado de la sesión.
func (r *SessionRepo) UpdateBalance(id string, balance decimal.Decimal) error {
	query := `UPDATE register_sessions SET system_balance = $2 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, balance)
	if err != nil {
		return fmt.Errorf("update session balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTargetNotFound
	}
	return nil
}

// Close marca la sesión como cerrada con monto contado y diferencia.
// Condicionado a status = 'open': cerrar dos veces no pisa el primer cierre.
func (r *SessionRepo) Close(id string, counted, difference decimal.Decimal, closedBy string, closedAt time.Time) error {
	query := `
		UPDATE register_sessions
		SET status = 'closed', closing_amount = $2, difference = $3, closed_by = $4, closed_at = $5
		WHERE id = $1 AND status = 'open'`
	tag, err := r.q.Exec(context.Background(), query, id, counted, difference, closedBy, closedAt)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionClosed
	}
	return nil
}

// ListOpen devuelve todas las sesiones abiertas (barrido de reconciliación).
func (r *SessionRepo) ListOpen() ([]*entity.RegisterSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM register_sessions WHERE status = 'open' ORDER BY opened_at`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListByStore lista el historial de sesiones de una tienda, descendente.
func (r *SessionRepo) ListByStore(storeID string, limit, offset int) ([]*entity.RegisterSession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM register_sessions WHERE store_id = $1
		ORDER BY opened_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, storeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions by store: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *SessionRepo) scanOne(row pgx.Row) (*entity.RegisterSession, error) {
	var s entity.RegisterSession
	err := row.Scan(
		&s.ID, &s.TenantID, &s.StoreID, &s.OpenedBy, &s.OpeningAmount, &s.SystemBalance,
		&s.ClosingAmount, &s.Difference, &s.ClosedBy, &s.Status, &s.OpenedAt, &s.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepo) scanMany(rows pgx.Rows) ([]*entity.RegisterSession, error) {
	var list []*entity.RegisterSession
	for rows.Next() {
		var s entity.RegisterSession
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.StoreID, &s.OpenedBy, &s.OpeningAmount, &s.SystemBalance,
			&s.ClosingAmount, &s.Difference, &s.ClosedBy, &s.Status, &s.OpenedAt, &s.ClosedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
