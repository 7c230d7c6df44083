package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
)

// OrderTxRunner ejecuta fn dentro de una transacción con repos atados a ella.
// Si fn devuelve error (o el commit falla) no queda nada persistido.
type OrderTxRunner interface {
	RunOrders(ctx context.Context, fn func(
		orderRepo repository.OrderRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// IdempotencyRecord estado de una clave de idempotencia. OrderID vacío = checkout en curso.
type IdempotencyRecord struct {
	OrderID     string
	Fingerprint string // hash del carrito que reservó la clave
}

// IdempotencyStore reserva claves de idempotencia por usuario antes de abrir la transacción.
type IdempotencyStore interface {
	// Reserve toma la clave de forma atómica. Si ya estaba tomada devuelve el registro
	// existente y reserved=false.
	Reserve(ctx context.Context, userID, key, fingerprint string) (rec IdempotencyRecord, reserved bool, err error)
	// Complete asocia el pedido creado a la clave reservada.
	Complete(ctx context.Context, userID, key, fingerprint, orderID string) error
	// Release libera la reserva de un checkout que falló.
	Release(ctx context.Context, userID, key string) error
}

// Tipos de evento de pedido.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent evento de dominio publicado después del commit.
type OrderEvent struct {
	Type           string             `json:"type"`
	OrderID        string             `json:"order_id"`
	UserID         string             `json:"user_id"`
	Status         entity.OrderStatus `json:"status"`
	PreviousStatus entity.OrderStatus `json:"previous_status,omitempty"`
	Total          decimal.Decimal    `json:"total"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// EventPublisher publica eventos de pedidos (Kafka o no-op).
type EventPublisher interface {
	Publish(ctx context.Context, evt OrderEvent) error
}

// ShopInfo datos del comercio para documentos (boleta PDF y guía de despacho).
type ShopInfo struct {
	Name     string
	TaxID    string
	Address  string
	Currency string
}

// ReceiptGenerator genera el comprobante PDF del pedido.
type ReceiptGenerator interface {
	GenerateReceipt(o *entity.Order, shop ShopInfo) ([]byte, error)
}

// DispatchGuideBuilder genera la guía de despacho XML del pedido.
type DispatchGuideBuilder interface {
	BuildGuide(o *entity.Order, shop ShopInfo, issuedAt time.Time) ([]byte, error)
}
