package register

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

// LedgerUseCase es la frontera transaccional del ledger de caja: valida el
// movimiento, lo persiste y actualiza el balance derivado dentro de una misma
// transacción serializada por sesión (bloqueo de fila sobre la cabecera).
type LedgerUseCase struct {
	txRunner  TxRunner
	storeRepo repository.StoreRepository
	sessions  repository.SessionRepository     // lecturas fuera de tx
	movements repository.CashMovementRepository // lecturas fuera de tx
	log       *logger.Logger
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	storeRepo repository.StoreRepository,
	sessions repository.SessionRepository,
	movements repository.CashMovementRepository,
	log *logger.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:  txRunner,
		storeRepo: storeRepo,
		sessions:  sessions,
		movements: movements,
		log:       log,
	}
}

// OpenInput entrada para abrir una sesión de caja.
type OpenInput struct {
	TenantID      string
	UserID        string
	StoreID       string
	OpeningAmount decimal.Decimal
}

// RecordInput entrada para registrar un movimiento sobre una sesión abierta.
type RecordInput struct {
	TenantID       string
	UserID         string
	SessionID      string
	Category       entity.CashCategory
	Amount         decimal.Decimal
	Reason         string
	Reference      string
	IdempotencyKey string
}

// CloseInput entrada para cerrar una sesión.
type CloseInput struct {
	TenantID      string
	UserID        string
	SessionID     string
	CountedAmount decimal.Decimal
}

// MovementResult movimiento persistido más el balance resultante.
// Duplicate indica que la clave de idempotencia ya estaba procesada: se
// devuelve el movimiento original y el balance vigente, sin re-aplicar.
type MovementResult struct {
	Movement   *entity.CashMovement
	NewBalance decimal.Decimal
	Duplicate  bool
}

// CloseResult sesión cerrada más el movimiento de cierre.
type CloseResult struct {
	Session  *entity.RegisterSession
	Movement *entity.CashMovement
}

// OpenSession crea la sesión en estado abierto con balance igual al monto de
// apertura y emite el movimiento "opening". La unicidad de sesión abierta por
// tienda la garantiza un índice único parcial; la pre-verificación solo
// adelanta el error más frecuente.
func (uc *LedgerUseCase) OpenSession(ctx context.Context, input OpenInput) (*entity.RegisterSession, error) {
	if input.OpeningAmount.IsNegative() {
		return nil, domain.ErrInvalidMagnitude
	}
	if err := uc.checkStore(input.TenantID, input.StoreID); err != nil {
		return nil, err
	}
	if open, err := uc.sessions.GetOpenByStore(input.StoreID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, domain.ErrSessionAlreadyOpen
	}

	now := time.Now()
	session := &entity.RegisterSession{
		ID:            uuid.New().String(),
		TenantID:      input.TenantID,
		StoreID:       input.StoreID,
		OpenedBy:      input.UserID,
		OpeningAmount: input.OpeningAmount,
		SystemBalance: input.OpeningAmount,
		Status:        entity.SessionOpen,
		OpenedAt:      now,
	}
	opening := &entity.CashMovement{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		TenantID:  input.TenantID,
		Category:  entity.CashOpening,
		Amount:    input.OpeningAmount,
		CreatedAt: now,
		CreatedBy: input.UserID,
	}

	err := uc.txRunner.Run(ctx, func(
		sessions repository.SessionRepository,
		movements repository.CashMovementRepository,
	) error {
		if err := sessions.Create(session); err != nil {
			return err
		}
		return movements.Create(opening)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("session_id", session.ID).
		Str("store_id", session.StoreID).
		Str("opening_amount", input.OpeningAmount.String()).
		Msg("sesión de caja abierta")
	return session, nil
}

// RecordMovement valida y aplica un movimiento: bloquea la fila de la sesión,
// inserta el movimiento y reescribe el balance, todo en una transacción.
// Reintenta con backoff solo ante contención (ErrConcurrentModification).
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, input RecordInput) (*MovementResult, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidMagnitude
	}
	if !input.Category.Recordable() {
		return nil, domain.ErrUnknownCategory
	}

	var result *MovementResult
	err := retry.Do(ctx, retry.DefaultAttempts, func() error {
		return uc.txRunner.Run(ctx, func(
			sessions repository.SessionRepository,
			movements repository.CashMovementRepository,
		) error {
			sess, err := uc.lockSession(sessions, input.TenantID, input.SessionID)
			if err != nil {
				return err
			}
			if !sess.IsOpen() {
				return domain.ErrSessionClosed
			}

			if input.IdempotencyKey != "" {
				dup, err := movements.GetByIdempotencyKey(sess.ID, input.IdempotencyKey)
				if err != nil {
					return err
				}
				if dup != nil {
					result = &MovementResult{Movement: dup, NewBalance: sess.SystemBalance, Duplicate: true}
					return nil
				}
			}

			newBalance, err := ledger.ApplyCash(sess.SystemBalance, input.Category, input.Amount)
			if err != nil {
				return err
			}
			mov := &entity.CashMovement{
				ID:             uuid.New().String(),
				SessionID:      sess.ID,
				TenantID:       input.TenantID,
				Category:       input.Category,
				Amount:         input.Amount,
				Reason:         input.Reason,
				Reference:      input.Reference,
				IdempotencyKey: input.IdempotencyKey,
				CreatedAt:      time.Now(),
				CreatedBy:      input.UserID,
			}
			if err := movements.Create(mov); err != nil {
				return err
			}
			if err := sessions.UpdateBalance(sess.ID, newBalance); err != nil {
				return err
			}
			result = &MovementResult{Movement: mov, NewBalance: newBalance}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CloseSession transiciona la sesión a cerrada: emite el movimiento "closing"
// con el monto contado, congela el balance y calcula la diferencia
// (contado − balance del sistema) en la misma transacción.
func (uc *LedgerUseCase) CloseSession(ctx context.Context, input CloseInput) (*CloseResult, error) {
	if input.CountedAmount.IsNegative() {
		return nil, domain.ErrInvalidMagnitude
	}

	var result *CloseResult
	err := retry.Do(ctx, retry.DefaultAttempts, func() error {
		return uc.txRunner.Run(ctx, func(
			sessions repository.SessionRepository,
			movements repository.CashMovementRepository,
		) error {
			sess, err := uc.lockSession(sessions, input.TenantID, input.SessionID)
			if err != nil {
				return err
			}
			if !sess.IsOpen() {
				return domain.ErrSessionClosed
			}

			now := time.Now()
			difference := input.CountedAmount.Sub(sess.SystemBalance)
			closing := &entity.CashMovement{
				ID:        uuid.New().String(),
				SessionID: sess.ID,
				TenantID:  input.TenantID,
				Category:  entity.CashClosing,
				Amount:    input.CountedAmount,
				CreatedAt: now,
				CreatedBy: input.UserID,
			}
			if err := movements.Create(closing); err != nil {
				return err
			}
			if err := sessions.Close(sess.ID, input.CountedAmount, difference, input.UserID, now); err != nil {
				return err
			}

			counted := input.CountedAmount
			closedBy := input.UserID
			closedAt := now
			sess.Status = entity.SessionClosed
			sess.ClosingAmount = &counted
			sess.Difference = &difference
			sess.ClosedBy = &closedBy
			sess.ClosedAt = &closedAt
			result = &CloseResult{Session: sess, Movement: closing}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("session_id", input.SessionID).
		Str("difference", result.Session.Difference.String()).
		Msg("sesión de caja cerrada")
	return result, nil
}

// lockSession bloquea la fila de la sesión y valida existencia y tenant.
func (uc *LedgerUseCase) lockSession(sessions repository.SessionRepository, tenantID, sessionID string) (*entity.RegisterSession, error) {
	sess, err := sessions.GetForUpdate(sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrTargetNotFound
	}
	if sess.TenantID != tenantID {
		return nil, domain.ErrTenantMismatch
	}
	return sess, nil
}

// checkStore valida existencia y pertenencia de la tienda destino.
func (uc *LedgerUseCase) checkStore(tenantID, storeID string) error {
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
	return nil
}
