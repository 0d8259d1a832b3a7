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

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const stockMovementColumns = `id, tenant_id, store_id, variant_id, category, quantity, unit_cost, reason, reference, idempotency_key, created_at, created_by`

// StockMovementRepo implementación append-only sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento de stock.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, tenant_id, store_id, variant_id, category, quantity, unit_cost, reason, reference, idempotency_key, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	key := (*string)(nil)
	if m.IdempotencyKey != "" {
		key = &m.IdempotencyKey
	}
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.TenantID, m.StoreID, m.VariantID, m.Category, m.Quantity,
		m.UnitCost, m.Reason, m.Reference, key, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID, o (nil, nil).
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + stockMovementColumns + ` FROM stock_movements WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetByIdempotencyKey busca la clave dentro del par (tienda, variante), o (nil, nil).
func (r *StockMovementRepo) GetByIdempotencyKey(storeID, variantID, key string) (*entity.StockMovement, error) {
	query := `SELECT ` + stockMovementColumns + `
		FROM stock_movements WHERE store_id = $1 AND variant_id = $2 AND idempotency_key = $3`
	return r.scanOne(r.q.QueryRow(context.Background(), query, storeID, variantID, key))
}

// ListByTarget lista movimientos del par, descendentes, con rango de fechas opcional.
func (r *StockMovementRepo) ListByTarget(storeID, variantID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + stockMovementColumns + ` FROM stock_movements WHERE store_id = $1 AND variant_id = $2`
	args := []any{storeID, variantID}
	pos := 3
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
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListAllByTarget devuelve todos los movimientos del par (recomputación).
func (r *StockMovementRepo) ListAllByTarget(storeID, variantID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + stockMovementColumns + `
		FROM stock_movements WHERE store_id = $1 AND variant_id = $2 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, storeID, variantID)
	if err != nil {
		return nil, fmt.Errorf("list all stock movements: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *StockMovementRepo) scanOne(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var key *string
	err := row.Scan(
		&m.ID, &m.TenantID, &m.StoreID, &m.VariantID, &m.Category, &m.Quantity,
		&m.UnitCost, &m.Reason, &m.Reference, &key, &m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	if key != nil {
		m.IdempotencyKey = *key
	}
	return &m, nil
}

func (r *StockMovementRepo) scanMany(rows pgx.Rows) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var key *string
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.StoreID, &m.VariantID, &m.Category, &m.Quantity,
			&m.UnitCost, &m.Reason, &m.Reference, &key, &m.CreatedAt, &m.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		if key != nil {
			m.IdempotencyKey = *key
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
