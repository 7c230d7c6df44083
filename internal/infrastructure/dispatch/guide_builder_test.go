package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

func shippedOrder() *entity.Order {
	return &entity.Order{
		ID:           "7d3c1a0e-1b2c-4d5e-8f90-a1b2c3d4e5f6",
		UserID:       "u-1",
		Status:       entity.OrderStatusShipped,
		ShippingCost: decimal.NewFromInt(3135),
		Total:        decimal.NewFromInt(30115),
		CreatedAt:    time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		Items: []entity.OrderItem{
			{ProductID: "p-1", ProductName: "Carmenere & Syrah", Quantity: 2, UnitPrice: decimal.NewFromInt(8990)},
			{ProductID: "p-2", ProductName: "Rosé", Quantity: 1, UnitPrice: decimal.NewFromInt(9000)},
		},
		Customer: &entity.OrderCustomer{Name: "Ana", Address: "Av. Italia 850, Ñuñoa"},
	}
}

var shop = orders.ShopInfo{Name: "Vitto's Wine", TaxID: "76.123.456-7", Address: "Santiago", Currency: "CLP"}

func TestBuildGuide_EstructuraYDigest(t *testing.T) {
	out, err := NewGuideBuilder().BuildGuide(shippedOrder(), shop, time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "GuiaDespacho", root.Tag)
	assert.Equal(t, "enviado", root.FindElement("Pedido/Estado").Text())
	assert.Equal(t, "3", root.FindElement("Totales/Bultos").Text())
	assert.Len(t, root.FindElements("Detalle/Linea"), 2)
	assert.Equal(t, "Carmenere & Syrah", root.FindElement("Detalle/Linea/Nombre").Text())

	ok, err := Verify(out)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_DetectaAlteracion(t *testing.T) {
	out, err := NewGuideBuilder().BuildGuide(shippedOrder(), shop, time.Now())
	require.NoError(t, err)

	tampered := strings.Replace(string(out), "<Bultos>3</Bultos>", "<Bultos>30</Bultos>", 1)
	require.NotEqual(t, string(out), tampered)

	ok, err := Verify([]byte(tampered))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Verify([]byte("<GuiaDespacho/>"))
	assert.Error(t, err)
}

func TestBuildGuide_Determinista(t *testing.T) {
	at := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	a, err := NewGuideBuilder().BuildGuide(shippedOrder(), shop, at)
	require.NoError(t, err)
	b, err := NewGuideBuilder().BuildGuide(shippedOrder(), shop, at)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
