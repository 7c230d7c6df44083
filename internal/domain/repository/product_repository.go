package repository

import (
	"context"

	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

// ProductFilter filtros opcionales del listado de catálogo.
type ProductFilter struct {
	Category string
}

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetByIDs devuelve los productos encontrados; los ids inexistentes se omiten.
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Product, error)
	GetByName(ctx context.Context, name string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int, error)
	// Delete devuelve domain.ErrInUse si hay líneas de pedido que lo referencian.
	Delete(ctx context.Context, id string) error
}
