// Package ledger implementa el acumulador de balances: el efecto neto de una
// categoría+magnitud sobre un balance, como función pura. La persistencia es
// responsabilidad del servicio que lo invoca.
//
// El signo NUNCA viaja en la magnitud (siempre positiva): lo aporta una tabla
// fija categoría→dirección, de modo que una categoría mal mapeada falla en
// tests de exhaustividad y no en producción.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/comandera/backoffice-api/internal/domain"
	"github.com/comandera/backoffice-api/internal/domain/entity"
)

// Direction es el signo que una categoría imprime sobre el balance.
type Direction int

const (
	// Snapshot: la categoría registra un hecho (monto contado al cierre)
	// pero no altera el balance y se excluye de la recomputación.
	Snapshot Direction = 0
	Credit   Direction = 1
	Debit    Direction = -1
)

// cashDirections: tabla fija de signos del ledger de caja.
var cashDirections = map[entity.CashCategory]Direction{
	entity.CashOpening:  Credit,
	entity.CashSale:     Credit,
	entity.CashAddition: Credit,
	entity.CashRemoval:  Debit,
	entity.CashRefund:   Debit,
	entity.CashClosing:  Snapshot,
}

// stockDirections: tabla fija de signos del ledger de stock.
var stockDirections = map[entity.StockCategory]Direction{
	entity.StockInbound:            Credit,
	entity.StockAdjustmentIncrease: Credit,
	entity.StockSaleReturn:         Credit,
	entity.StockOutbound:           Debit,
	entity.StockAdjustmentDecrease: Debit,
	entity.StockSaleConsumption:    Debit,
}

// CashDirection devuelve la dirección de una categoría de caja.
func CashDirection(category entity.CashCategory) (Direction, error) {
	d, ok := cashDirections[category]
	if !ok {
		return Snapshot, domain.ErrUnknownCategory
	}
	return d, nil
}

// StockDirection devuelve la dirección de una categoría de stock.
func StockDirection(category entity.StockCategory) (Direction, error) {
	d, ok := stockDirections[category]
	if !ok {
		return Snapshot, domain.ErrUnknownCategory
	}
	return d, nil
}

// apply aplica dirección×magnitud sobre el balance. Magnitudes no positivas
// se rechazan aquí como última línea de defensa (el servicio valida antes).
// Un snapshot no altera el balance y admite magnitud cero: el cierre puede
// contar una caja vacía.
func apply(balance decimal.Decimal, d Direction, magnitude decimal.Decimal) (decimal.Decimal, error) {
	if d == Snapshot {
		if magnitude.IsNegative() {
			return balance, domain.ErrInvalidMagnitude
		}
		return balance, nil
	}
	if !magnitude.IsPositive() {
		return balance, domain.ErrInvalidMagnitude
	}
	switch d {
	case Credit:
		return balance.Add(magnitude), nil
	case Debit:
		return balance.Sub(magnitude), nil
	}
	return balance, nil
}

// ApplyCash devuelve el nuevo balance de caja tras un movimiento. Pura.
// El opening admite monto cero (se puede abrir caja vacía); el resto de las
// categorías delta exige magnitud estrictamente positiva.
func ApplyCash(balance decimal.Decimal, category entity.CashCategory, amount decimal.Decimal) (decimal.Decimal, error) {
	d, err := CashDirection(category)
	if err != nil {
		return balance, err
	}
	if category == entity.CashOpening {
		if amount.IsNegative() {
			return balance, domain.ErrInvalidMagnitude
		}
		return balance.Add(amount), nil
	}
	return apply(balance, d, amount)
}

// ApplyStock devuelve la nueva cantidad en mano tras un movimiento. Pura.
func ApplyStock(quantity decimal.Decimal, category entity.StockCategory, qty decimal.Decimal) (decimal.Decimal, error) {
	d, err := StockDirection(category)
	if err != nil {
		return quantity, err
	}
	return apply(quantity, d, qty)
}

// SumCash recomputa desde cero el balance de una sesión: la suma firmada de
// todos sus movimientos (el opening incluido, el closing excluido por ser
// snapshot). Es el camino independiente contra el que se audita la caché.
func SumCash(movements []*entity.CashMovement) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, m := range movements {
		next, err := ApplyCash(total, m.Category, m.Amount)
		if err != nil {
			return decimal.Zero, err
		}
		total = next
	}
	return total, nil
}

// SumStock recomputa desde cero la cantidad en mano de (tienda, variante).
func SumStock(movements []*entity.StockMovement) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, m := range movements {
		next, err := ApplyStock(total, m.Category, m.Quantity)
		if err != nil {
			return decimal.Zero, err
		}
		total = next
	}
	return total, nil
}
