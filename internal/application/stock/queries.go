package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain"
	"github.com/comandera/backoffice-api/internal/domain/entity"
	"github.com/comandera/backoffice-api/internal/domain/ledger"
	"github.com/comandera/backoffice-api/internal/domain/repository"
)

// Verification resultado de comparar la cantidad recomputada contra la caché.
type Verification struct {
	StoreID   string
	VariantID string
	OK        bool
	Expected  decimal.Decimal
	Actual    decimal.Decimal
}

// GetBalance devuelve la caché de stock del par (tienda, variante).
func (uc *LedgerUseCase) GetBalance(tenantID, storeID, variantID string) (*entity.StockBalance, error) {
	if err := uc.checkTarget(tenantID, storeID, variantID); err != nil {
		return nil, err
	}
	return uc.balances.Get(storeID, variantID)
}

// ListBalances lista la caché de stock de una tienda.
func (uc *LedgerUseCase) ListBalances(tenantID, storeID string, limit, offset int) ([]*entity.StockBalance, error) {
	store, err := uc.storeRepo.GetByID(storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrTargetNotFound
	}
	if store.TenantID != tenantID {
		return nil, domain.ErrTenantMismatch
	}
	return uc.balances.ListByStore(storeID, limit, offset)
}

// ListMovements lista los movimientos del par, descendentes por fecha.
func (uc *LedgerUseCase) ListMovements(tenantID, storeID, variantID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if err := uc.checkTarget(tenantID, storeID, variantID); err != nil {
		return nil, err
	}
	return uc.movements.ListByTarget(storeID, variantID, from, to, limit, offset)
}

// VerifyBalance recomputa la cantidad en mano desde los movimientos y la
// compara con la caché. Solo reporta; la corrección es exclusiva de Reconcile.
func (uc *LedgerUseCase) VerifyBalance(tenantID, storeID, variantID string) (*Verification, error) {
	if err := uc.checkTarget(tenantID, storeID, variantID); err != nil {
		return nil, err
	}
	bal, err := uc.balances.Get(storeID, variantID)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movements.ListAllByTarget(storeID, variantID)
	if err != nil {
		return nil, err
	}
	expected, err := ledger.SumStock(movs)
	if err != nil {
		return nil, err
	}
	v := &Verification{
		StoreID:   storeID,
		VariantID: variantID,
		OK:        expected.Equal(bal.QuantityOnHand),
		Expected:  expected,
		Actual:    bal.QuantityOnHand,
	}
	if !v.OK {
		uc.log.Error().
			Str("store_id", storeID).
			Str("variant_id", variantID).
			Str("expected", expected.String()).
			Str("actual", bal.QuantityOnHand.String()).
			Err(domain.ErrBalanceMismatch).
			Msg("stock cacheado inconsistente")
	}
	return v, nil
}

// Reconcile recomputa bajo bloqueo de fila y reescribe la caché si difiere,
// tomando la suma de movimientos como fuente de verdad.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, tenantID, storeID, variantID string) (*Verification, error) {
	if err := uc.checkTarget(tenantID, storeID, variantID); err != nil {
		return nil, err
	}
	var result *Verification
	err := uc.txRunner.Run(ctx, func(
		balances repository.StockBalanceRepository,
		movements repository.StockMovementRepository,
	) error {
		bal, err := balances.GetForUpdate(tenantID, storeID, variantID)
		if err != nil {
			return err
		}
		movs, err := movements.ListAllByTarget(storeID, variantID)
		if err != nil {
			return err
		}
		expected, err := ledger.SumStock(movs)
		if err != nil {
			return err
		}
		result = &Verification{
			StoreID:   storeID,
			VariantID: variantID,
			OK:        expected.Equal(bal.QuantityOnHand),
			Expected:  expected,
			Actual:    bal.QuantityOnHand,
		}
		if !result.OK {
			uc.log.Error().
				Str("store_id", storeID).
				Str("variant_id", variantID).
				Str("expected", expected.String()).
				Str("actual", bal.QuantityOnHand.String()).
				Err(domain.ErrBalanceMismatch).
				Msg("reescribiendo stock desde recomputación")
			bal.TenantID = tenantID
			bal.QuantityOnHand = expected
			bal.UpdatedAt = time.Now()
			return balances.Upsert(bal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
