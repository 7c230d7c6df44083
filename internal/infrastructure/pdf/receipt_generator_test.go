package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

func sampleOrder() *entity.Order {
	return &entity.Order{
		ID:           "0b6f6c1e-8a55-4c8e-9a43-2f0a5f4f0d11",
		UserID:       "u-1",
		Status:       entity.OrderStatusProcessing,
		ShippingCost: decimal.NewFromInt(3135),
		Total:        decimal.NewFromInt(21115),
		CreatedAt:    time.Date(2026, 5, 2, 18, 30, 0, 0, time.UTC),
		Items: []entity.OrderItem{
			{ID: "i-1", ProductID: "p-1", ProductName: "Carmenere Reserva", Category: "Santa Rita", Quantity: 2, UnitPrice: decimal.NewFromInt(8990)},
		},
		Customer: &entity.OrderCustomer{Name: "Ana Pérez", Email: "ana@vittos.cl", Phone: "+56 9 1234 5678", Address: "Av. Providencia 1234"},
	}
}

func TestGenerateReceipt(t *testing.T) {
	doc, err := NewReceiptGenerator().GenerateReceipt(sampleOrder(), orders.ShopInfo{Name: "Vitto's Wine", TaxID: "76.123.456-7", Currency: "CLP"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestGenerateReceipt_SinCliente(t *testing.T) {
	o := sampleOrder()
	o.Customer = nil
	o.Items = nil

	doc, err := NewReceiptGenerator().GenerateReceipt(o, orders.ShopInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, doc)

	_, err = NewReceiptGenerator().GenerateReceipt(nil, orders.ShopInfo{})
	assert.Error(t, err)
}
