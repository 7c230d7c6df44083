package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutRequest_AceptaAmbosFormatos(t *testing.T) {
	var snake, camel CheckoutRequest
	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"product_id":"p-1","quantity":2,"unit_price":"10.00"}],"total":"23"}`), &snake))
	require.NoError(t, json.Unmarshal([]byte(`{"lineItems":[{"productId":"p-1","quantity":2,"unitPrice":10}],"total":23}`), &camel))

	for _, r := range []CheckoutRequest{snake, camel} {
		require.Len(t, r.Items, 1)
		assert.Equal(t, "p-1", r.Items[0].ProductID)
		assert.Equal(t, 2, r.Items[0].Quantity)
		require.NotNil(t, r.Items[0].UnitPrice)
		assert.Equal(t, "10.00", r.Items[0].UnitPrice.StringFixed(2))
		require.NotNil(t, r.Total)
		assert.Equal(t, "23.00", r.Total.StringFixed(2))
	}
}

func TestCheckoutRequest_PrecioOpcional(t *testing.T) {
	var r CheckoutRequest
	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"product_id":"p-1","quantity":1}]}`), &r))
	assert.Nil(t, r.Items[0].UnitPrice)
	assert.Nil(t, r.Total)

	assert.Error(t, json.Unmarshal([]byte(`{"items":"x"}`), &r))
}
