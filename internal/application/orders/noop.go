package orders

import "context"

// NoopPublisher descarta los eventos (Kafka deshabilitado).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// NoopIdempotency nunca recuerda claves: toda reserva se concede.
type NoopIdempotency struct{}

func (NoopIdempotency) Reserve(context.Context, string, string, string) (IdempotencyRecord, bool, error) {
	return IdempotencyRecord{}, true, nil
}

func (NoopIdempotency) Complete(context.Context, string, string, string, string) error { return nil }

func (NoopIdempotency) Release(context.Context, string, string) error { return nil }
