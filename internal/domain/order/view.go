package order

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

// Row fila plana del join pedido x línea x producto (x usuario en la vista admin).
type Row struct {
	OrderID      string
	UserID       string
	Status       entity.OrderStatus
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Customer     *entity.OrderCustomer
	Item         *entity.OrderItem // nil si el pedido no tiene líneas (LEFT JOIN)
}

// GroupRows agrupa filas planas en pedidos anidados. Los metadatos del pedido se toman
// de la primera fila vista; las líneas conservan el orden de llegada. El resultado queda
// ordenado por fecha de creación descendente (estable ante empates).
func GroupRows(rows []Row) []*entity.Order {
	index := make(map[string]*entity.Order, len(rows))
	out := make([]*entity.Order, 0)

	for _, r := range rows {
		o, ok := index[r.OrderID]
		if !ok {
			o = &entity.Order{
				ID:           r.OrderID,
				UserID:       r.UserID,
				Status:       r.Status,
				ShippingCost: r.ShippingCost,
				Total:        r.Total,
				CreatedAt:    r.CreatedAt,
				UpdatedAt:    r.UpdatedAt,
				Customer:     r.Customer,
				Items:        []entity.OrderItem{},
			}
			index[r.OrderID] = o
			out = append(out, o)
		}
		if r.Item != nil {
			it := *r.Item
			it.OrderID = r.OrderID
			o.Items = append(o.Items, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
