package register_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comandera/backoffice-api/internal/application/register"
	"github.com/comandera/backoffice-api/internal/domain"
	"github.com/comandera/backoffice-api/internal/domain/entity"
	"github.com/comandera/backoffice-api/internal/infrastructure/memory"
	"github.com/comandera/backoffice-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testTenantID = "00000000-0000-0000-0000-00000000000a"
	otherTenant  = "00000000-0000-0000-0000-00000000000b"
	testStoreID  = "00000000-0000-0000-0000-000000000001"
	testUserID   = "00000000-0000-0000-0000-000000000099"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// newCashLedger levanta el caso de uso sobre el almacén en memoria con una
// tienda ya sembrada.
func newCashLedger(t *testing.T) (*register.LedgerUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedStore(&entity.Store{
		ID:        testStoreID,
		TenantID:  testTenantID,
		Name:      "Sucursal Centro",
		CreatedAt: time.Now(),
	})
	uc := register.NewLedgerUseCase(
		memory.NewRegisterTxRunner(store),
		memory.NewStoreRepository(store),
		memory.NewSessionRepository(store),
		memory.NewCashMovementRepository(store),
		logger.Nop(),
	)
	return uc, store
}

func openSession(t *testing.T, uc *register.LedgerUseCase, amount string) *entity.RegisterSession {
	t.Helper()
	sess, err := uc.OpenSession(context.Background(), register.OpenInput{
		TenantID:      testTenantID,
		UserID:        testUserID,
		StoreID:       testStoreID,
		OpeningAmount: dec(t, amount),
	})
	require.NoError(t, err)
	return sess
}

func recordSale(t *testing.T, uc *register.LedgerUseCase, sessionID, amount string) *register.MovementResult {
	t.Helper()
	res, err := uc.RecordMovement(context.Background(), register.RecordInput{
		TenantID:  testTenantID,
		UserID:    testUserID,
		SessionID: sessionID,
		Category:  entity.CashSale,
		Amount:    dec(t, amount),
	})
	require.NoError(t, err)
	return res
}

// ──────────────────────────────────────────────────────────────────────────────
// Apertura
// ──────────────────────────────────────────────────────────────────────────────

func TestOpenSession_AperturaInicializaBalance(t *testing.T) {
	uc, _ := newCashLedger(t)

	sess := openSession(t, uc, "100.00")

	assert.Equal(t, entity.SessionOpen, sess.Status)
	assert.True(t, dec(t, "100.00").Equal(sess.SystemBalance))
	assert.True(t, dec(t, "100.00").Equal(sess.OpeningAmount))

	// La apertura queda como primer movimiento del ledger.
	movs, err := uc.ListMovements(testTenantID, sess.ID, nil, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.CashOpening, movs[0].Category)
	assert.True(t, dec(t, "100.00").Equal(movs[0].Amount))
}

func TestOpenSession_MontoNegativo(t *testing.T) {
	uc, _ := newCashLedger(t)
	_, err := uc.OpenSession(context.Background(), register.OpenInput{
		TenantID:      testTenantID,
		UserID:        testUserID,
		StoreID:       testStoreID,
		OpeningAmount: dec(t, "-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMagnitude)
}

func TestOpenSession_TiendaInexistente(t *testing.T) {
	uc, _ := newCashLedger(t)
	_, err := uc.OpenSession(context.Background(), register.OpenInput{
		TenantID: testTenantID,
		UserID:   testUserID,
		StoreID:  "no-existe",
	})
	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func TestOpenSession_TiendaDeOtroTenant(t *testing.T) {
	uc, _ := newCashLedger(t)
	_, err := uc.OpenSession(context.Background(), register.OpenInput{
		TenantID: otherTenant,
		UserID:   testUserID,
		StoreID:  testStoreID,
	})
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)
}

func TestOpenSession_SegundaAperturaFalla(t *testing.T) {
	uc, _ := newCashLedger(t)
	openSession(t, uc, "50.00")

	_, err := uc.OpenSession(context.Background(), register.OpenInput{
		TenantID: testTenantID,
		UserID:   testUserID,
		StoreID:  testStoreID,
	})
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyOpen)
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro de movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_VentaYRetiro(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "100.00")

	res := recordSale(t, uc, sess.ID, "25.50")
	assert.True(t, dec(t, "125.50").Equal(res.NewBalance), "tras venta: %s", res.NewBalance)
	assert.False(t, res.Duplicate)

	res2, err := uc.RecordMovement(context.Background(), register.RecordInput{
		TenantID:  testTenantID,
		UserID:    testUserID,
		SessionID: sess.ID,
		Category:  entity.CashRemoval,
		Amount:    dec(t, "10.00"),
		Reason:    "pago a proveedor",
	})
	require.NoError(t, err)
	assert.True(t, dec(t, "115.50").Equal(res2.NewBalance), "tras retiro: %s", res2.NewBalance)

	cur, err := uc.CurrentSession(testTenantID, testStoreID)
	require.NoError(t, err)
	assert.True(t, dec(t, "115.50").Equal(cur.SystemBalance))
}

func TestRecordMovement_CategoriaNoRegistrable(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "10.00")

	for _, cat := range []entity.CashCategory{entity.CashOpening, entity.CashClosing, "bogus"} {
		_, err := uc.RecordMovement(context.Background(), register.RecordInput{
			TenantID:  testTenantID,
			UserID:    testUserID,
			SessionID: sess.ID,
			Category:  cat,
			Amount:    dec(t, "1.00"),
		})
		assert.ErrorIs(t, err, domain.ErrUnknownCategory, "categoría %s", cat)
	}
}

func TestRecordMovement_MontoNoPositivo(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "10.00")

	for _, amount := range []string{"0", "-3.50"} {
		_, err := uc.RecordMovement(context.Background(), register.RecordInput{
			TenantID:  testTenantID,
			UserID:    testUserID,
			SessionID: sess.ID,
			Category:  entity.CashSale,
			Amount:    dec(t, amount),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidMagnitude, "monto %s", amount)
	}
}

func TestRecordMovement_SesionInexistente(t *testing.T) {
	uc, _ := newCashLedger(t)
	_, err := uc.RecordMovement(context.Background(), register.RecordInput{
		TenantID:  testTenantID,
		UserID:    testUserID,
		SessionID: "no-existe",
		Category:  entity.CashSale,
		Amount:    dec(t, "1.00"),
	})
	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func TestRecordMovement_TenantAjeno(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "10.00")

	_, err := uc.RecordMovement(context.Background(), register.RecordInput{
		TenantID:  otherTenant,
		UserID:    testUserID,
		SessionID: sess.ID,
		Category:  entity.CashSale,
		Amount:    dec(t, "1.00"),
	})
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)
}

func TestRecordMovement_Idempotencia(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "100.00")

	input := register.RecordInput{
		TenantID:       testTenantID,
		UserID:         testUserID,
		SessionID:      sess.ID,
		Category:       entity.CashSale,
		Amount:         dec(t, "25.50"),
		IdempotencyKey: "pos-42-ticket-7",
	}

	first, err := uc.RecordMovement(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.True(t, dec(t, "125.50").Equal(first.NewBalance))

	// El reintento devuelve el movimiento original sin re-aplicar.
	second, err := uc.RecordMovement(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Movement.ID, second.Movement.ID)
	assert.True(t, dec(t, "125.50").Equal(second.NewBalance), "el balance no debe moverse")

	v, err := uc.VerifyBalance(testTenantID, sess.ID)
	require.NoError(t, err)
	assert.True(t, v.OK, "recomputación == caché tras reintento idempotente")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre
// ──────────────────────────────────────────────────────────────────────────────

func TestCloseSession_CalculaDiferencia(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "100.00")
	recordSale(t, uc, sess.ID, "25.50")

	_, err := uc.RecordMovement(context.Background(), register.RecordInput{
		TenantID:  testTenantID,
		UserID:    testUserID,
		SessionID: sess.ID,
		Category:  entity.CashRemoval,
		Amount:    dec(t, "10.00"),
	})
	require.NoError(t, err)

	res, err := uc.CloseSession(context.Background(), register.CloseInput{
		TenantID:      testTenantID,
		UserID:        testUserID,
		SessionID:     sess.ID,
		CountedAmount: dec(t, "110.00"),
	})
	require.NoError(t, err)

	closed := res.Session
	assert.Equal(t, entity.SessionClosed, closed.Status)
	require.NotNil(t, closed.Difference)
	assert.True(t, dec(t, "-5.50").Equal(*closed.Difference), "faltante: %s", closed.Difference)
	require.NotNil(t, closed.ClosingAmount)
	assert.True(t, dec(t, "110.00").Equal(*closed.ClosingAmount))
	// El balance del sistema queda congelado, no pisado por el conteo.
	assert.True(t, dec(t, "115.50").Equal(closed.SystemBalance))
	assert.Equal(t, entity.CashClosing, res.Movement.Category)

	// Sobre una sesión cerrada no se admite nada más.
	_, err = uc.RecordMovement(context.Background(), register.RecordInput{
		TenantID:  testTenantID,
		UserID:    testUserID,
		SessionID: sess.ID,
		Category:  entity.CashSale,
		Amount:    dec(t, "1.00"),
	})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	// El cierre es snapshot: la recomputación sigue cuadrando.
	v, err := uc.VerifyBalance(testTenantID, sess.ID)
	require.NoError(t, err)
	assert.True(t, v.OK)
	assert.True(t, dec(t, "115.50").Equal(v.Expected))
}

func TestCloseSession_DobleCierre(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "10.00")

	_, err := uc.CloseSession(context.Background(), register.CloseInput{
		TenantID:      testTenantID,
		UserID:        testUserID,
		SessionID:     sess.ID,
		CountedAmount: dec(t, "10.00"),
	})
	require.NoError(t, err)

	_, err = uc.CloseSession(context.Background(), register.CloseInput{
		TenantID:      testTenantID,
		UserID:        testUserID,
		SessionID:     sess.ID,
		CountedAmount: dec(t, "10.00"),
	})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestCloseSession_PermiteReabrirDespues(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "10.00")

	_, err := uc.CloseSession(context.Background(), register.CloseInput{
		TenantID:      testTenantID,
		UserID:        testUserID,
		SessionID:     sess.ID,
		CountedAmount: dec(t, "10.00"),
	})
	require.NoError(t, err)

	next := openSession(t, uc, "20.00")
	assert.NotEqual(t, sess.ID, next.ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia y auditoría
// ──────────────────────────────────────────────────────────────────────────────

// N registradores concurrentes sobre la misma sesión: ningún movimiento se
// pierde y el balance final es exactamente apertura + N×monto.
func TestRecordMovement_ConcurrenciaSinPerdidas(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "100.00")

	const n = 50
	amount := dec(t, "1.00")
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := uc.RecordMovement(context.Background(), register.RecordInput{
				TenantID:  testTenantID,
				UserID:    testUserID,
				SessionID: sess.ID,
				Category:  entity.CashSale,
				Amount:    amount,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := uc.GetSession(testTenantID, sess.ID)
	require.NoError(t, err)
	assert.True(t, dec(t, "150.00").Equal(final.SystemBalance), "balance final: %s", final.SystemBalance)

	v, err := uc.VerifyBalance(testTenantID, sess.ID)
	require.NoError(t, err)
	assert.True(t, v.OK, "recomputación == caché tras escritores concurrentes")

	movs, err := uc.ListMovements(testTenantID, sess.ID, nil, nil, 100, 0)
	require.NoError(t, err)
	assert.Len(t, movs, n+1, "apertura + n ventas")
}

func TestRecord_MovimientosPreviosInmutables(t *testing.T) {
	uc, _ := newCashLedger(t)
	sess := openSession(t, uc, "100.00")
	recordSale(t, uc, sess.ID, "25.50")

	before, err := uc.ListMovements(testTenantID, sess.ID, nil, nil, 100, 0)
	require.NoError(t, err)
	require.Len(t, before, 2)

	recordSale(t, uc, sess.ID, "10.00")

	after, err := uc.ListMovements(testTenantID, sess.ID, nil, nil, 100, 0)
	require.NoError(t, err)
	require.Len(t, after, 3)

	byID := make(map[string]*entity.CashMovement, len(after))
	for _, m := range after {
		byID[m.ID] = m
	}
	for _, prev := range before {
		got, ok := byID[prev.ID]
		require.True(t, ok, "movimiento %s desapareció del ledger", prev.ID)
		assert.Equal(t, prev.Category, got.Category)
		assert.True(t, prev.Amount.Equal(got.Amount))
		assert.Equal(t, prev.IdempotencyKey, got.IdempotencyKey)
		assert.WithinDuration(t, prev.CreatedAt, got.CreatedAt, 0)
	}
}

func TestReconcile_ReparaCacheCorrupta(t *testing.T) {
	uc, store := newCashLedger(t)
	sess := openSession(t, uc, "100.00")
	recordSale(t, uc, sess.ID, "25.50")

	// Corrupción simulada de la caché por fuera del servicio.
	require.NoError(t, memory.NewSessionRepository(store).UpdateBalance(sess.ID, dec(t, "999.99")))

	v, err := uc.VerifyBalance(testTenantID, sess.ID)
	require.NoError(t, err)
	assert.False(t, v.OK)
	assert.True(t, dec(t, "125.50").Equal(v.Expected))
	assert.True(t, dec(t, "999.99").Equal(v.Actual))

	// Reconcile toma la recomputación como fuente de verdad.
	r, err := uc.Reconcile(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, r.OK, "reporta el desajuste que encontró")

	after, err := uc.VerifyBalance(testTenantID, sess.ID)
	require.NoError(t, err)
	assert.True(t, after.OK)
	assert.True(t, dec(t, "125.50").Equal(after.Actual))
}

func TestReconcileOpenSessions_BarreSoloAbiertas(t *testing.T) {
	uc, store := newCashLedger(t)
	sess := openSession(t, uc, "50.00")
	require.NoError(t, memory.NewSessionRepository(store).UpdateBalance(sess.ID, dec(t, "1.00")))

	require.NoError(t, uc.ReconcileOpenSessions(context.Background()))

	after, err := uc.GetSession(testTenantID, sess.ID)
	require.NoError(t, err)
	assert.True(t, dec(t, "50.00").Equal(after.SystemBalance))
}
