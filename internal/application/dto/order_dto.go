package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutRequest body para POST /api/orders.
// UnitPrice por línea y Total son opcionales cuando el servidor toma los precios del catálogo.
type CheckoutRequest struct {
	Items []CheckoutItemRequest `json:"items"`
	Total *decimal.Decimal      `json:"total,omitempty"`
}

// CheckoutItemRequest línea del carrito.
type CheckoutItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// UnmarshalJSON acepta también el formato del carrito web: lineItems, productId, unitPrice.
func (r *CheckoutRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Items     []CheckoutItemRequest `json:"items"`
		LineItems []CheckoutItemRequest `json:"lineItems"`
		Total     *decimal.Decimal      `json:"total"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Items = raw.Items
	if len(r.Items) == 0 {
		r.Items = raw.LineItems
	}
	r.Total = raw.Total
	return nil
}

// UnmarshalJSON acepta product_id/productId y unit_price/unitPrice.
func (r *CheckoutItemRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID  string           `json:"product_id"`
		ProductID2 string           `json:"productId"`
		Quantity   int              `json:"quantity"`
		UnitPrice  *decimal.Decimal `json:"unit_price"`
		UnitPrice2 *decimal.Decimal `json:"unitPrice"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ProductID = raw.ProductID
	if r.ProductID == "" {
		r.ProductID = raw.ProductID2
	}
	r.Quantity = raw.Quantity
	r.UnitPrice = raw.UnitPrice
	if r.UnitPrice == nil {
		r.UnitPrice = raw.UnitPrice2
	}
	return nil
}

// CheckoutResponse resultado del checkout.
type CheckoutResponse struct {
	OrderID      string          `json:"order_id"`
	Status       string          `json:"status,omitempty"`
	StatusLabel  string          `json:"status_label,omitempty"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
	Idempotent   bool            `json:"idempotent,omitempty"`
	Message      string          `json:"message"`
}

// UpdateOrderStatusRequest body para PUT /api/orders/:id/status.
// Acepta el valor canónico (processing) o la etiqueta en español (procesando).
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// OrderResponse pedido agregado con sus líneas.
type OrderResponse struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	Status       string                 `json:"status"`
	StatusLabel  string                 `json:"status_label"`
	Subtotal     decimal.Decimal        `json:"subtotal"`
	ShippingCost decimal.Decimal        `json:"shipping_cost"`
	Total        decimal.Decimal        `json:"total"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Items        []OrderItemResponse    `json:"items"`
	Customer     *OrderCustomerResponse `json:"customer,omitempty"`
}

// OrderItemResponse línea con el precio congelado y datos actuales del producto.
type OrderItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderCustomerResponse datos de contacto del dueño del pedido (vista admin).
type OrderCustomerResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
