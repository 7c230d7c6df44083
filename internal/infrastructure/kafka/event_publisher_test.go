package kafka

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/pkg/logger"
)

func TestToMessage_ClaveYCabecera(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	evt := orders.OrderEvent{
		Type:           orders.EventOrderStatusChanged,
		OrderID:        "o-1",
		UserID:         "u-1",
		Status:         entity.OrderStatusShipped,
		PreviousStatus: entity.OrderStatusProcessing,
		Total:          decimal.RequireFromString("28.00"),
		OccurredAt:     at,
	}

	msg, err := toMessage(evt)
	require.NoError(t, err)

	assert.Equal(t, "o-1", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, orders.EventOrderStatusChanged, string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "shipped", body["status"])
	assert.Equal(t, "processing", body["previous_status"])
	assert.Equal(t, "28", body["total"])
}

func TestNewEventPublisher_EscrituraAsincrona(t *testing.T) {
	p := NewEventPublisher([]string{"localhost:9092"}, "orders", nil)
	t.Cleanup(func() { _ = p.Close() })

	assert.True(t, p.w.Async, "un broker caído no debe frenar la petición")
	assert.NotNil(t, p.w.Completion)
	assert.Equal(t, "orders", p.w.Topic)
}

func TestOnCompletion_RegistraEntregaFallida(t *testing.T) {
	var buf bytes.Buffer
	p := NewEventPublisher([]string{"localhost:9092"}, "orders", logger.NewWithWriter(&buf, "debug"))
	t.Cleanup(func() { _ = p.Close() })

	msg, err := toMessage(orders.OrderEvent{Type: orders.EventOrderCreated, OrderID: "o-7"})
	require.NoError(t, err)

	p.onCompletion([]kafka.Message{msg}, nil)
	assert.Empty(t, buf.String())

	p.onCompletion([]kafka.Message{msg}, errors.New("dial tcp: connection refused"))
	out := buf.String()
	assert.Contains(t, out, `"order_id":"o-7"`)
	assert.Contains(t, out, `"event_type":"`+orders.EventOrderCreated+`"`)
	assert.Contains(t, out, "connection refused")
}
