package repository

import (
	"context"

	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para pedidos y sus líneas.
// Create y CreateItem se usan dentro de una transacción (ver OrderTxRunner).
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	CreateItem(ctx context.Context, item *entity.OrderItem) error
	// GetByID devuelve el pedido con líneas y datos del cliente; (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// ListByUser pedidos del usuario, más recientes primero.
	ListByUser(ctx context.Context, userID string) ([]*entity.Order, error)
	// ListAll todos los pedidos con el snapshot del cliente, más recientes primero.
	ListAll(ctx context.Context) ([]*entity.Order, error)
	// UpdateStatus cambia el estado sólo si el actual sigue siendo from.
	// Devuelve false si ninguna fila coincidió.
	UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus) (bool, error)
	// CountByUser cantidad de pedidos asociados a un usuario.
	CountByUser(ctx context.Context, userID string) (int, error)
}
