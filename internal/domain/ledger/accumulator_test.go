package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comandera/backoffice-api/internal/domain"
	"github.com/comandera/backoffice-api/internal/domain/entity"
	"github.com/comandera/backoffice-api/internal/domain/ledger"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// ──────────────────────────────────────────────────────────────────────────────
// Tablas de direcciones
// ──────────────────────────────────────────────────────────────────────────────

// Toda categoría de caja conocida debe tener dirección; una categoría nueva
// sin mapear debe romper este test antes de llegar a producción.
func TestCashDirection_TablaCompleta(t *testing.T) {
	cases := map[entity.CashCategory]ledger.Direction{
		entity.CashOpening:  ledger.Credit,
		entity.CashSale:     ledger.Credit,
		entity.CashAddition: ledger.Credit,
		entity.CashRemoval:  ledger.Debit,
		entity.CashRefund:   ledger.Debit,
		entity.CashClosing:  ledger.Snapshot,
	}
	for cat, want := range cases {
		got, err := ledger.CashDirection(cat)
		require.NoError(t, err, "categoría %s debe estar mapeada", cat)
		assert.Equal(t, want, got, "dirección de %s", cat)
	}
}

func TestStockDirection_TablaCompleta(t *testing.T) {
	cases := map[entity.StockCategory]ledger.Direction{
		entity.StockInbound:            ledger.Credit,
		entity.StockAdjustmentIncrease: ledger.Credit,
		entity.StockSaleReturn:         ledger.Credit,
		entity.StockOutbound:           ledger.Debit,
		entity.StockAdjustmentDecrease: ledger.Debit,
		entity.StockSaleConsumption:    ledger.Debit,
	}
	for cat, want := range cases {
		got, err := ledger.StockDirection(cat)
		require.NoError(t, err, "categoría %s debe estar mapeada", cat)
		assert.Equal(t, want, got, "dirección de %s", cat)
	}
}

func TestCashDirection_CategoriaDesconocida(t *testing.T) {
	_, err := ledger.CashDirection(entity.CashCategory("bogus"))
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)

	_, err = ledger.StockDirection(entity.StockCategory("bogus"))
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyCash
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyCash_SecuenciaAperturaVentaRetiro(t *testing.T) {
	balance := decimal.Zero

	balance, err := ledger.ApplyCash(balance, entity.CashOpening, dec(t, "100.00"))
	require.NoError(t, err)
	assert.True(t, dec(t, "100.00").Equal(balance), "tras apertura: %s", balance)

	balance, err = ledger.ApplyCash(balance, entity.CashSale, dec(t, "25.50"))
	require.NoError(t, err)
	assert.True(t, dec(t, "125.50").Equal(balance), "tras venta: %s", balance)

	balance, err = ledger.ApplyCash(balance, entity.CashRemoval, dec(t, "10.00"))
	require.NoError(t, err)
	assert.True(t, dec(t, "115.50").Equal(balance), "tras retiro: %s", balance)
}

// El cierre es un snapshot: registra el monto contado sin alterar el balance,
// y admite contar una caja vacía (monto cero).
func TestApplyCash_ClosingNoAlteraBalance(t *testing.T) {
	balance, err := ledger.ApplyCash(dec(t, "115.50"), entity.CashClosing, dec(t, "110.00"))
	require.NoError(t, err)
	assert.True(t, dec(t, "115.50").Equal(balance))

	balance, err = ledger.ApplyCash(dec(t, "115.50"), entity.CashClosing, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, dec(t, "115.50").Equal(balance))
}

// La apertura admite monto cero (caja que arranca vacía).
func TestApplyCash_OpeningCero(t *testing.T) {
	balance, err := ledger.ApplyCash(decimal.Zero, entity.CashOpening, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestApplyCash_MagnitudInvalida(t *testing.T) {
	_, err := ledger.ApplyCash(decimal.Zero, entity.CashSale, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidMagnitude, "venta de monto cero")

	_, err = ledger.ApplyCash(decimal.Zero, entity.CashSale, dec(t, "-5"))
	assert.ErrorIs(t, err, domain.ErrInvalidMagnitude, "venta de monto negativo")

	_, err = ledger.ApplyCash(decimal.Zero, entity.CashOpening, dec(t, "-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidMagnitude, "apertura negativa")

	_, err = ledger.ApplyCash(decimal.Zero, entity.CashClosing, dec(t, "-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidMagnitude, "cierre negativo")
}

// El balance puede quedar negativo en caja: un retiro mayor que el balance es
// un hecho contable válido (la caja física decide, no el acumulador).
func TestApplyCash_BalanceNegativoPermitido(t *testing.T) {
	balance, err := ledger.ApplyCash(dec(t, "10.00"), entity.CashRemoval, dec(t, "15.00"))
	require.NoError(t, err)
	assert.True(t, dec(t, "-5.00").Equal(balance))
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyStock
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyStock_EntradaYConsumo(t *testing.T) {
	qty, err := ledger.ApplyStock(decimal.Zero, entity.StockInbound, dec(t, "20"))
	require.NoError(t, err)
	assert.True(t, dec(t, "20").Equal(qty))

	qty, err = ledger.ApplyStock(qty, entity.StockSaleConsumption, dec(t, "3"))
	require.NoError(t, err)
	assert.True(t, dec(t, "17").Equal(qty))
}

// El acumulador no impone stock mínimo: el ajuste por conteo puede dejar la
// cantidad negativa y la guarda de suficiencia vive en el servicio.
func TestApplyStock_AjusteNegativo(t *testing.T) {
	qty, err := ledger.ApplyStock(dec(t, "2"), entity.StockAdjustmentDecrease, dec(t, "5"))
	require.NoError(t, err)
	assert.True(t, dec(t, "-3").Equal(qty))
}

func TestApplyStock_MagnitudInvalida(t *testing.T) {
	_, err := ledger.ApplyStock(decimal.Zero, entity.StockInbound, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidMagnitude)

	_, err = ledger.ApplyStock(decimal.Zero, entity.StockOutbound, dec(t, "-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidMagnitude)
}

// ──────────────────────────────────────────────────────────────────────────────
// Recomputación
// ──────────────────────────────────────────────────────────────────────────────

func cashMov(cat entity.CashCategory, amount string) *entity.CashMovement {
	return &entity.CashMovement{
		Category:  cat,
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: time.Now(),
	}
}

func TestSumCash_RecomputaDesdeCero(t *testing.T) {
	movs := []*entity.CashMovement{
		cashMov(entity.CashOpening, "100.00"),
		cashMov(entity.CashSale, "25.50"),
		cashMov(entity.CashRemoval, "10.00"),
		cashMov(entity.CashRefund, "5.00"),
		cashMov(entity.CashAddition, "2.25"),
		cashMov(entity.CashClosing, "110.00"), // snapshot, no suma
	}
	total, err := ledger.SumCash(movs)
	require.NoError(t, err)
	assert.True(t, dec(t, "112.75").Equal(total), "total: %s", total)
}

func TestSumStock_RecomputaDesdeCero(t *testing.T) {
	movs := []*entity.StockMovement{
		{Category: entity.StockInbound, Quantity: dec(t, "20")},
		{Category: entity.StockSaleConsumption, Quantity: dec(t, "3")},
		{Category: entity.StockSaleReturn, Quantity: dec(t, "1")},
		{Category: entity.StockAdjustmentDecrease, Quantity: dec(t, "2")},
	}
	total, err := ledger.SumStock(movs)
	require.NoError(t, err)
	assert.True(t, dec(t, "16").Equal(total), "total: %s", total)
}

func TestSumCash_CategoriaDesconocidaFalla(t *testing.T) {
	movs := []*entity.CashMovement{cashMov(entity.CashCategory("bogus"), "1")}
	_, err := ledger.SumCash(movs)
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
}

// ──────────────────────────────────────────────────────────────────────────────
// Costo promedio ponderado
// ──────────────────────────────────────────────────────────────────────────────

func TestWeightedAverageCost(t *testing.T) {
	cases := []struct {
		name                           string
		stock, cost, inQty, inCost, want string
	}{
		{"primera entrada", "0", "0", "10", "4.00", "4.00"},
		{"promedia dos lotes", "10", "2.00", "10", "4.00", "3.00"},
		{"lote pequeño apenas mueve el promedio", "100", "1.00", "1", "2.01", "1.01"},
		{"suma resultante no positiva devuelve cero", "-5", "3.00", "5", "2.00", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ledger.WeightedAverageCost(
				dec(t, tc.stock), dec(t, tc.cost), dec(t, tc.inQty), dec(t, tc.inCost),
			)
			assert.True(t, dec(t, tc.want).Equal(got), "got %s", got)
		})
	}
}
