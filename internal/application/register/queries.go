package register

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain"
	"github.com/comandera/backoffice-api/internal/domain/entity"
	"github.com/comandera/backoffice-api/internal/domain/ledger"
	"github.com/comandera/backoffice-api/internal/domain/repository"
)

// Verification resultado de comparar el balance recomputado contra el cacheado.
type Verification struct {
	TargetID string
	OK       bool
	Expected decimal.Decimal // suma de movimientos desde cero
	Actual   decimal.Decimal // balance mantenido incrementalmente
}

// GetSession devuelve la sesión validando tenant.
func (uc *LedgerUseCase) GetSession(tenantID, sessionID string) (*entity.RegisterSession, error) {
	sess, err := uc.sessions.GetByID(sessionID)
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

// CurrentSession devuelve la sesión abierta de la tienda, si existe.
func (uc *LedgerUseCase) CurrentSession(tenantID, storeID string) (*entity.RegisterSession, error) {
	if err := uc.checkStore(tenantID, storeID); err != nil {
		return nil, err
	}
	sess, err := uc.sessions.GetOpenByStore(storeID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrTargetNotFound
	}
	return sess, nil
}

// ListSessions lista el historial de sesiones de una tienda, descendente.
func (uc *LedgerUseCase) ListSessions(tenantID, storeID string, limit, offset int) ([]*entity.RegisterSession, error) {
	if err := uc.checkStore(tenantID, storeID); err != nil {
		return nil, err
	}
	return uc.sessions.ListByStore(storeID, limit, offset)
}

// ListMovements lista los movimientos de la sesión, descendentes por fecha.
// Camino de solo lectura: sin bloqueo, sin máquina de estados.
func (uc *LedgerUseCase) ListMovements(tenantID, sessionID string, from, to *time.Time, limit, offset int) ([]*entity.CashMovement, error) {
	if _, err := uc.GetSession(tenantID, sessionID); err != nil {
		return nil, err
	}
	return uc.movements.ListBySession(sessionID, from, to, limit, offset)
}

// VerifyBalance recomputa el balance de la sesión desde sus movimientos y lo
// compara con el cacheado. Un desajuste se reporta y se registra en el log;
// nunca se corrige aquí (eso es exclusivo de Reconcile).
func (uc *LedgerUseCase) VerifyBalance(tenantID, sessionID string) (*Verification, error) {
	sess, err := uc.GetSession(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movements.ListAllBySession(sessionID)
	if err != nil {
		return nil, err
	}
	expected, err := ledger.SumCash(movs)
	if err != nil {
		return nil, err
	}
	v := &Verification{
		TargetID: sessionID,
		OK:       expected.Equal(sess.SystemBalance),
		Expected: expected,
		Actual:   sess.SystemBalance,
	}
	if !v.OK {
		uc.log.Error().
			Str("session_id", sessionID).
			Str("expected", expected.String()).
			Str("actual", sess.SystemBalance.String()).
			Err(domain.ErrBalanceMismatch).
			Msg("balance de sesión inconsistente")
	}
	return v, nil
}

// Reconcile recomputa el balance bajo bloqueo de fila y, si la caché difiere,
// la reescribe tomando la recomputación como fuente de verdad. Es el único
// camino de autocorrección del sistema.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, sessionID string) (*Verification, error) {
	var result *Verification
	err := uc.txRunner.Run(ctx, func(
		sessions repository.SessionRepository,
		movements repository.CashMovementRepository,
	) error {
		sess, err := sessions.GetForUpdate(sessionID)
		if err != nil {
			return err
		}
		if sess == nil {
			return domain.ErrTargetNotFound
		}
		movs, err := movements.ListAllBySession(sessionID)
		if err != nil {
			return err
		}
		expected, err := ledger.SumCash(movs)
		if err != nil {
			return err
		}
		result = &Verification{
			TargetID: sessionID,
			OK:       expected.Equal(sess.SystemBalance),
			Expected: expected,
			Actual:   sess.SystemBalance,
		}
		if !result.OK {
			uc.log.Error().
				Str("session_id", sessionID).
				Str("expected", expected.String()).
				Str("actual", sess.SystemBalance.String()).
				Err(domain.ErrBalanceMismatch).
				Msg("reescribiendo balance desde recomputación")
			return sessions.UpdateBalance(sessionID, expected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReconcileOpenSessions repara al arranque las sesiones abiertas cuyo balance
// cacheado quedó desincronizado (p. ej. por un crash entre escrituras de una
// versión anterior sin transacción).
func (uc *LedgerUseCase) ReconcileOpenSessions(ctx context.Context) error {
	open, err := uc.sessions.ListOpen()
	if err != nil {
		return err
	}
	for _, sess := range open {
		if _, err := uc.Reconcile(ctx, sess.ID); err != nil {
			return err
		}
	}
	return nil
}
