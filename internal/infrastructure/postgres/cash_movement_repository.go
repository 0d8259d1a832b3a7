package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/comandera/backoffice-api/internal/domain/entity"
	"github.com/comandera/backoffice-api/internal/domain/repository"
)

var _ repository.CashMovementRepository = (*CashMovementRepo)(nil)

const cashMovementColumns = `id, session_id, tenant_id, category, amount, reason, reference, idempotency_key, created_at, created_by`

// CashMovementRepo implementación append-only sobre PostgreSQL (usable con pool o tx).
// No expone Update ni Delete: las correcciones son movimientos nuevos.
type CashMovementRepo struct {
	q Querier
}

// NewCashMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCashMovementRepository(q Querier) *CashMovementRepo {
	return &CashMovementRepo{q: q}
}

// Create persiste un movimiento de caja.
func (r *CashMovementRepo) Create(m *entity.CashMovement) error {
	query := `
		INSERT INTO cash_movements (id, session_id, tenant_id, category, amount, reason, reference, idempotency_key, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	key := (*string)(nil)
	if m.IdempotencyKey != "" {
		key = &m.IdempotencyKey
	}
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.SessionID, m.TenantID, m.Category, m.Amount,
		m.Reason, m.Reference, key, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create cash movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID, o (nil, nil).
func (r *CashMovementRepo) GetByID(id string) (*entity.CashMovement, error) {
	query := `SELECT ` + cashMovementColumns + ` FROM cash_movements WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetByIdempotencyKey busca la clave dentro de la sesión, o (nil, nil).
func (r *CashMovementRepo) GetByIdempotencyKey(sessionID, key string) (*entity.CashMovement, error) {
	query := `SELECT ` + cashMovementColumns + ` FROM cash_movements WHERE session_id = $1 AND idempotency_key = $2`
	return r.scanOne(r.q.QueryRow(context.Background(), query, sessionID, key))
}

// ListBySession lista movimientos de una sesión, descendentes, con rango de fechas opcional.
func (r *CashMovementRepo) ListBySession(sessionID string, from, to *time.Time, limit, offset int) ([]*entity.CashMovement, error) {
	query := `SELECT ` + cashMovementColumns + ` FROM cash_movements WHERE session_id = $1`
	args := []any{sessionID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cash movements: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListAllBySession devuelve todos los movimientos de la sesión (recomputación).
func (r *CashMovementRepo) ListAllBySession(sessionID string) ([]*entity.CashMovement, error) {
	query := `SELECT ` + cashMovementColumns + ` FROM cash_movements WHERE session_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list all cash movements: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *CashMovementRepo) scanOne(row pgx.Row) (*entity.CashMovement, error) {
	var m entity.CashMovement
	var key *string
	err := row.Scan(
		&m.ID, &m.SessionID, &m.TenantID, &m.Category, &m.Amount,
		&m.Reason, &m.Reference, &key, &m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cash movement: %w", err)
	}
	if key != nil {
		m.IdempotencyKey = *key
	}
	return &m, nil
}

func (r *CashMovementRepo) scanMany(rows pgx.Rows) ([]*entity.CashMovement, error) {
	var list []*entity.CashMovement
	for rows.Next() {
		var m entity.CashMovement
		var key *string
		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.TenantID, &m.Category, &m.Amount,
			&m.Reason, &m.Reference, &key, &m.CreatedAt, &m.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("scan cash movement: %w", err)
		}
		if key != nil {
			m.IdempotencyKey = *key
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
