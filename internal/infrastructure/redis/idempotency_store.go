// Package redis guarda las claves de idempotencia del checkout.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vittoswine/vittos-api/internal/application/orders"
)

var _ orders.IdempotencyStore = (*IdempotencyStore)(nil)

// idem:checkout:{user_id}:{key} -> {fingerprint}|{order_id}; order_id vacío mientras el checkout está en curso
const keyIdemCheckout = "idem:checkout:%s:%s"

const (
	// DefaultTTL vigencia de una clave de idempotencia.
	DefaultTTL = 24 * time.Hour
	// PendingTTL vida de una reserva sin pedido; si el proceso cae la clave se libera sola.
	PendingTTL = 2 * time.Minute
)

// borra la clave sólo si sigue en curso (termina en "|")
var releasePending = goredis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v and string.sub(v, -1) == "|" then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore implementación sobre Redis.
type IdempotencyStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewIdempotencyStore construye el adaptador. ttl <= 0 usa DefaultTTL.
func NewIdempotencyStore(rdb *goredis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// Reserve toma la clave con SET NX GET (Redis >= 7): en una sola operación reserva la
// clave o devuelve el valor que ya tenía.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID, key, fingerprint string) (orders.IdempotencyRecord, bool, error) {
	prev, err := s.rdb.SetArgs(ctx, idemKey(userID, key), encodeRecord(fingerprint, ""), goredis.SetArgs{
		Mode: "NX",
		TTL:  PendingTTL,
		Get:  true,
	}).Result()
	if errors.Is(err, goredis.Nil) {
		return orders.IdempotencyRecord{}, true, nil
	}
	if err != nil {
		return orders.IdempotencyRecord{}, false, fmt.Errorf("redis reserve idempotency: %w", err)
	}
	return decodeRecord(prev), false, nil
}

// Complete asocia el pedido a la clave con la vigencia completa.
func (s *IdempotencyStore) Complete(ctx context.Context, userID, key, fingerprint, orderID string) error {
	if err := s.rdb.Set(ctx, idemKey(userID, key), encodeRecord(fingerprint, orderID), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis complete idempotency: %w", err)
	}
	return nil
}

// Release libera una reserva en curso; una clave ya asociada a un pedido no se toca.
func (s *IdempotencyStore) Release(ctx context.Context, userID, key string) error {
	if err := releasePending.Run(ctx, s.rdb, []string{idemKey(userID, key)}).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis release idempotency: %w", err)
	}
	return nil
}

// Ping para el chequeo de readiness.
func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func idemKey(userID, key string) string {
	return fmt.Sprintf(keyIdemCheckout, userID, key)
}

func encodeRecord(fingerprint, orderID string) string {
	return fingerprint + "|" + orderID
}

func decodeRecord(v string) orders.IdempotencyRecord {
	fp, orderID, ok := strings.Cut(v, "|")
	if !ok {
		// valor sin huella: se trata como pedido ya registrado
		return orders.IdempotencyRecord{OrderID: v}
	}
	return orders.IdempotencyRecord{Fingerprint: fp, OrderID: orderID}
}
