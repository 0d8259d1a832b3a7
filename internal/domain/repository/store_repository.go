package repository

import "github.com/comandera/backoffice-api/internal/domain/entity"

// StoreRepository define el puerto de lectura de tiendas. El núcleo del ledger
// solo lo usa para validar existencia y tenant del destino.
type StoreRepository interface {
	GetByID(id string) (*entity.Store, error)
}
