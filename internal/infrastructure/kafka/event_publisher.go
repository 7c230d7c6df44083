// Package kafka publica los eventos de pedidos.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/pkg/logger"
)

var _ orders.EventPublisher = (*EventPublisher)(nil)

// EventPublisher escribe eventos de pedido en un tópico. La clave es el order_id para
// que todos los eventos de un pedido caigan en la misma partición.
type EventPublisher struct {
	w   *kafka.Writer
	log *logger.Logger
}

// NewEventPublisher crea un writer asíncrono: Publish sólo encola y los errores de
// entrega se registran en el log, así un broker caído no frena las peticiones.
func NewEventPublisher(brokers []string, topic string, log *logger.Logger) *EventPublisher {
	if log == nil {
		log = logger.Nop()
	}
	p := &EventPublisher{log: log.Named("kafka")}
	p.w = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             p.onCompletion,
	}
	return p
}

// Publish encola el evento; la entrega se confirma en onCompletion.
func (p *EventPublisher) Publish(ctx context.Context, evt orders.OrderEvent) error {
	msg, err := toMessage(evt)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", evt.Type, err)
	}
	return nil
}

// onCompletion recibe el resultado de cada lote entregado (o fallido) por el writer.
func (p *EventPublisher) onCompletion(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		p.log.Warn().Err(err).
			Str("order_id", string(m.Key)).
			Str("event_type", eventType(m)).
			Msg("evento de pedido no entregado")
	}
}

// Close vacía el buffer y cierra el writer.
func (p *EventPublisher) Close() error {
	return p.w.Close()
}

func toMessage(evt orders.OrderEvent) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serializar evento: %w", err)
	}
	return kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}, nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
