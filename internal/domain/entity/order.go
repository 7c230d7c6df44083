package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado del ciclo de vida de un pedido (valor canónico persistido).
type OrderStatus string

// Estados canónicos del pedido.
const (
	OrderStatusPending    OrderStatus = "pending"    // recién creado en checkout
	OrderStatusProcessing OrderStatus = "processing" // en preparación
	OrderStatusShipped    OrderStatus = "shipped"    // entregado al courier
	OrderStatusDelivered  OrderStatus = "delivered"  // terminal
	OrderStatusCancelled  OrderStatus = "cancelled"  // terminal
)

// Order representa la cabecera de un pedido.
// Total = suma(cantidad * precio unitario) + ShippingCost, fijado al crear.
type Order struct {
	ID           string
	UserID       string
	Status       OrderStatus
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items    []OrderItem
	Customer *OrderCustomer // sólo en vistas de administración y detalle
}

// Subtotal suma de las líneas (sin envío).
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// OrderCustomer datos del dueño del pedido leídos desde users al momento de la consulta.
type OrderCustomer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}
