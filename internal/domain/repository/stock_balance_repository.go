package repository

import "github.com/comandera/backoffice-api/internal/domain/entity"

// StockBalanceRepository define el puerto para la caché de stock por
// (tienda, variante). Usado dentro de transacciones para garantizar que la
// caché nunca diverja de los movimientos.
type StockBalanceRepository interface {
	// Get devuelve la fila, o una fila en cero si el par no tiene movimientos.
	Get(storeID, variantID string) (*entity.StockBalance, error)
	// GetForUpdate bloquea la fila (SELECT ... FOR UPDATE): punto de
	// serialización por destino del ledger de stock. Si el par aún no tiene
	// fila, la siembra en cero antes de bloquear; sin eso, dos primeros
	// movimientos concurrentes no tendrían nada que bloquear y uno pisaría
	// al otro.
	GetForUpdate(tenantID, storeID, variantID string) (*entity.StockBalance, error)
	Upsert(balance *entity.StockBalance) error
	ListByStore(storeID string, limit, offset int) ([]*entity.StockBalance, error)
}
