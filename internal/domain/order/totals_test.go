package order_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vittoswine/vittos-api/internal/domain"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/order"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNew_CarritoDeEjemplo(t *testing.T) {
	// 2 x 10.00 + 1 x 5.00 + envío 3.00 = 28.00
	lines := []order.LineInput{
		{ProductID: "p-1", Quantity: 2, UnitPrice: d("10.00")},
		{ProductID: "p-2", Quantity: 1, UnitPrice: d("5.00")},
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	o, err := order.New("u-1", lines, d("3.00"), d("28.00"), now)
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusPending, o.Status)
	assert.Equal(t, "28.00", o.Total.StringFixed(2))
	assert.Equal(t, "25.00", o.Subtotal().StringFixed(2))
	assert.True(t, o.Subtotal().Add(o.ShippingCost).Equal(o.Total))
	require.Len(t, o.Items, 2)
	for _, it := range o.Items {
		assert.Equal(t, o.ID, it.OrderID)
		assert.NotEmpty(t, it.ID)
	}
	assert.Equal(t, now, o.CreatedAt)
}

func TestNew_TotalNoCoincide(t *testing.T) {
	lines := []order.LineInput{{ProductID: "p-1", Quantity: 1, UnitPrice: d("10")}}

	_, err := order.New("u-1", lines, d("3"), d("12.99"), time.Now())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "total", ve.Field)
}

func TestNew_Validaciones(t *testing.T) {
	cases := []struct {
		name  string
		user  string
		lines []order.LineInput
		field string
	}{
		{"carrito vacío", "u-1", nil, "items"},
		{"sin usuario", "", []order.LineInput{{ProductID: "p", Quantity: 1}}, "user_id"},
		{"cantidad cero", "u-1", []order.LineInput{{ProductID: "p", Quantity: 0}}, "items[0].quantity"},
		{"precio negativo", "u-1", []order.LineInput{{ProductID: "p", Quantity: 1, UnitPrice: d("-1")}}, "items[0].unit_price"},
		{"sin producto", "u-1", []order.LineInput{{Quantity: 1}}, "items[0].product_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := order.New(tc.user, tc.lines, decimal.Zero, decimal.Zero, time.Now())
			require.ErrorIs(t, err, domain.ErrInvalidOrder)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestTotal_RedondeaUnaVez(t *testing.T) {
	// 3 x 0.33 + envío 3135.005 = 3135.995 -> 3136.00 tras un único redondeo
	lines := []order.LineInput{{ProductID: "p", Quantity: 3, UnitPrice: d("0.33")}}
	assert.Equal(t, "3136.00", order.Total(lines, d("3135.005")).StringFixed(2))
	assert.True(t, order.SameAmount(d("1.005"), d("1.01")))
}

func TestNew_PrecioConFraccionDeCentavo(t *testing.T) {
	// 3 x 3.333 daría total 10.00 pero las líneas guardadas con 2 decimales suman 9.99
	lines := []order.LineInput{{ProductID: "p", Quantity: 3, UnitPrice: d("3.333")}}

	_, err := order.New("u-1", lines, decimal.Zero, d("10.00"), time.Now())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "items[0].unit_price", ve.Field)

	// ceros a la derecha no son fracción de centavo
	lines[0].UnitPrice = d("3.330")
	o, err := order.New("u-1", lines, decimal.Zero, d("9.99"), time.Now())
	require.NoError(t, err)
	assert.True(t, o.Subtotal().Add(o.ShippingCost).Equal(o.Total))
}
