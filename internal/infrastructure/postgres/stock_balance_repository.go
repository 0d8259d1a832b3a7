package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain/entity"
	"github.com/comandera/backoffice-api/internal/domain/repository"
)

var _ repository.StockBalanceRepository = (*StockBalanceRepo)(nil)

// StockBalanceRepo implementación de StockBalanceRepository sobre PostgreSQL
// (usable con pool o tx).
type StockBalanceRepo struct {
	q Querier
}

// NewStockBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockBalanceRepository(q Querier) *StockBalanceRepo {
	return &StockBalanceRepo{q: q}
}

// Get obtiene la caché del par, o una fila en cero si aún no tiene movimientos.
func (r *StockBalanceRepo) Get(storeID, variantID string) (*entity.StockBalance, error) {
	query := `
		SELECT tenant_id, store_id, variant_id, quantity_on_hand, avg_unit_cost, updated_at
		FROM stock_balances WHERE store_id = $1 AND variant_id = $2`
	return r.scanOne(r.q.QueryRow(context.Background(), query, storeID, variantID), storeID, variantID)
}

// GetForUpdate siembra la fila en cero si no existe y la bloquea
// (SELECT FOR UPDATE). La siembra previa es lo que serializa también el
// primer movimiento del par: sin fila no habría nada que bloquear.
func (r *StockBalanceRepo) GetForUpdate(tenantID, storeID, variantID string) (*entity.StockBalance, error) {
	seed := `
		INSERT INTO stock_balances (tenant_id, store_id, variant_id, quantity_on_hand, avg_unit_cost, updated_at)
		VALUES ($1, $2, $3, 0, 0, now())
		ON CONFLICT (store_id, variant_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), seed, tenantID, storeID, variantID); err != nil {
		return nil, fmt.Errorf("seed stock balance: %w", err)
	}
	query := `
		SELECT tenant_id, store_id, variant_id, quantity_on_hand, avg_unit_cost, updated_at
		FROM stock_balances WHERE store_id = $1 AND variant_id = $2
		FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, storeID, variantID), storeID, variantID)
}

// Upsert inserta o actualiza la caché de stock del par (tienda, variante).
func (r *StockBalanceRepo) Upsert(b *entity.StockBalance) error {
	query := `
		INSERT INTO stock_balances (tenant_id, store_id, variant_id, quantity_on_hand, avg_unit_cost, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (store_id, variant_id)
		DO UPDATE SET quantity_on_hand = EXCLUDED.quantity_on_hand,
		              avg_unit_cost = EXCLUDED.avg_unit_cost,
		              updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		b.TenantID, b.StoreID, b.VariantID, b.QuantityOnHand, b.AvgUnitCost, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock balance: %w", err)
	}
	return nil
}

// ListByStore lista la caché de stock de una tienda.
func (r *StockBalanceRepo) ListByStore(storeID string, limit, offset int) ([]*entity.StockBalance, error) {
	query := `
		SELECT tenant_id, store_id, variant_id, quantity_on_hand, avg_unit_cost, updated_at
		FROM stock_balances WHERE store_id = $1
		ORDER BY variant_id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, storeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock balances: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockBalance
	for rows.Next() {
		var b entity.StockBalance
		if err := rows.Scan(&b.TenantID, &b.StoreID, &b.VariantID, &b.QuantityOnHand, &b.AvgUnitCost, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock balance: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

func (r *StockBalanceRepo) scanOne(row pgx.Row, storeID, variantID string) (*entity.StockBalance, error) {
	var b entity.StockBalance
	err := row.Scan(&b.TenantID, &b.StoreID, &b.VariantID, &b.QuantityOnHand, &b.AvgUnitCost, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{
				StoreID:        storeID,
				VariantID:      variantID,
				QuantityOnHand: decimal.Zero,
				AvgUnitCost:    decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return &b, nil
}
