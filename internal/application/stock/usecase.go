package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/application/retry"
	"github.com/comandera/backoffice-api/internal/domain"
	"github.com/comandera/backoffice-api/internal/domain/entity"
	"github.com/comandera/backoffice-api/internal/domain/ledger"
	"github.com/comandera/backoffice-api/internal/domain/repository"
	"github.com/comandera/backoffice-api/pkg/logger"
)

// LedgerUseCase es la frontera transaccional del ledger de stock. A diferencia
// de caja no hay sesiones: el destino (tienda, variante) está siempre abierto
// y la serialización la da el bloqueo de su fila en stock_balances.
type LedgerUseCase struct {
	txRunner    TxRunner
	storeRepo   repository.StoreRepository
	variantRepo repository.VariantRepository
	balances    repository.StockBalanceRepository // lecturas fuera de tx
	movements   repository.StockMovementRepository
	log         *logger.Logger
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	storeRepo repository.StoreRepository,
	variantRepo repository.VariantRepository,
	balances repository.StockBalanceRepository,
	movements repository.StockMovementRepository,
	log *logger.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:    txRunner,
		storeRepo:   storeRepo,
		variantRepo: variantRepo,
		balances:    balances,
		movements:   movements,
		log:         log,
	}
}

// RecordInput entrada para registrar un movimiento de stock.
// UnitCost es obligatorio en inbound (ahí se recalcula el costo promedio);
// en las salidas se ignora: se valora al promedio vigente.
type RecordInput struct {
	TenantID       string
	UserID         string
	StoreID        string
	VariantID      string
	Category       entity.StockCategory
	Quantity       decimal.Decimal
	UnitCost       *decimal.Decimal
	Reason         string
	Reference      string
	IdempotencyKey string
}

// MovementResult movimiento persistido más la caché de stock resultante.
type MovementResult struct {
	Movement  *entity.StockMovement
	Balance   *entity.StockBalance
	Duplicate bool
}

// RecordMovement valida y aplica un movimiento de stock: bloquea la fila de
// (tienda, variante), inserta el movimiento y reescribe la cantidad en mano y
// el costo promedio, todo en una transacción. Reintenta solo ante contención.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, input RecordInput) (*MovementResult, error) {
	if !input.Quantity.IsPositive() {
		return nil, domain.ErrInvalidMagnitude
	}
	if _, err := ledger.StockDirection(input.Category); err != nil {
		return nil, err
	}
	if input.Category == entity.StockInbound {
		if input.UnitCost == nil || input.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidMagnitude
		}
	}
	if err := uc.checkTarget(input.TenantID, input.StoreID, input.VariantID); err != nil {
		return nil, err
	}

	var result *MovementResult
	err := retry.Do(ctx, retry.DefaultAttempts, func() error {
		return uc.txRunner.Run(ctx, func(
			balances repository.StockBalanceRepository,
			movements repository.StockMovementRepository,
		) error {
			bal, err := balances.GetForUpdate(input.TenantID, input.StoreID, input.VariantID)
			if err != nil {
				return err
			}

			if input.IdempotencyKey != "" {
				dup, err := movements.GetByIdempotencyKey(input.StoreID, input.VariantID, input.IdempotencyKey)
				if err != nil {
					return err
				}
				if dup != nil {
					result = &MovementResult{Movement: dup, Balance: bal, Duplicate: true}
					return nil
				}
			}

			newQty, err := ledger.ApplyStock(bal.QuantityOnHand, input.Category, input.Quantity)
			if err != nil {
				return err
			}
			// La salida física no puede dejar stock negativo; el ajuste por
			// conteo sí, porque el conteo manda sobre la caché.
			if newQty.IsNegative() && guardsNegative(input.Category) {
				return domain.ErrInsufficientStock
			}

			now := time.Now()
			unitCost := bal.AvgUnitCost
			if input.Category == entity.StockInbound {
				unitCost = *input.UnitCost
				bal.AvgUnitCost = ledger.WeightedAverageCost(bal.QuantityOnHand, bal.AvgUnitCost, input.Quantity, unitCost)
			}
			bal.TenantID = input.TenantID
			bal.QuantityOnHand = newQty
			bal.UpdatedAt = now
			if err := balances.Upsert(bal); err != nil {
				return err
			}

			cost := unitCost
			mov := &entity.StockMovement{
				ID:             uuid.New().String(),
				TenantID:       input.TenantID,
				StoreID:        input.StoreID,
				VariantID:      input.VariantID,
				Category:       input.Category,
				Quantity:       input.Quantity,
				UnitCost:       &cost,
				Reason:         input.Reason,
				Reference:      input.Reference,
				IdempotencyKey: input.IdempotencyKey,
				CreatedAt:      now,
				CreatedBy:      input.UserID,
			}
			if err := movements.Create(mov); err != nil {
				return err
			}
			result = &MovementResult{Movement: mov, Balance: bal}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if !result.Duplicate {
		uc.log.Debug().
			Str("store_id", input.StoreID).
			Str("variant_id", input.VariantID).
			Str("category", string(input.Category)).
			Str("on_hand", result.Balance.QuantityOnHand.String()).
			Msg("movimiento de stock aplicado")
	}
	return result, nil
}

// guardsNegative indica si la categoría exige stock suficiente.
func guardsNegative(c entity.StockCategory) bool {
	return c == entity.StockOutbound || c == entity.StockSaleConsumption
}

// checkTarget valida existencia y tenant de tienda y variante.
func (uc *LedgerUseCase) checkTarget(tenantID, storeID, variantID string) error {
	store, err := uc.storeRepo.GetByID(storeID)
	if err != nil {
		return err
	}
	if store == nil {
		return domain.ErrTargetNotFound
	}
	if store.TenantID != tenantID {
		return domain.ErrTenantMismatch
	}
	variant, err := uc.variantRepo.GetByID(variantID)
	if err != nil {
		return err
	}
	if variant == nil {
		return domain.ErrTargetNotFound
	}
	if variant.TenantID != tenantID {
		return domain.ErrTenantMismatch
	}
	return nil
}
