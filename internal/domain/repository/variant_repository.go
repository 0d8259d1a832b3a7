package repository

import "github.com/comandera/backoffice-api/internal/domain/entity"

// VariantRepository define el puerto de lectura de variantes de producto.
type VariantRepository interface {
	GetByID(id string) (*entity.ProductVariant, error)
}
