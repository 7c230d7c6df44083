package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vittoswine/vittos-api/internal/application/orders"
)

var _ orders.IdempotencyStore = (*IdempotencyStore)(nil)

// PendingTTL vida de una reserva sin pedido; si el proceso cae la clave se libera sola.
const PendingTTL = 2 * time.Minute

type idemEntry struct {
	rec     orders.IdempotencyRecord
	expires time.Time
}

// IdempotencyStore claves de idempotencia en memoria con vencimiento.
type IdempotencyStore struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	m   map[string]idemEntry
}

// NewIdempotencyStore crea el store; ttl <= 0 significa sin vencimiento.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, now: time.Now, m: make(map[string]idemEntry)}
}

func (s *IdempotencyStore) Reserve(_ context.Context, userID, key, fingerprint string) (orders.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := idemKey(userID, key)
	if e, ok := s.m[k]; ok && !s.expired(e) {
		return e.rec, false, nil
	}
	s.m[k] = idemEntry{
		rec:     orders.IdempotencyRecord{Fingerprint: fingerprint},
		expires: s.now().Add(PendingTTL),
	}
	return orders.IdempotencyRecord{}, true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, userID, key, fingerprint, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var exp time.Time
	if s.ttl > 0 {
		exp = s.now().Add(s.ttl)
	}
	s.m[idemKey(userID, key)] = idemEntry{
		rec:     orders.IdempotencyRecord{OrderID: orderID, Fingerprint: fingerprint},
		expires: exp,
	}
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := idemKey(userID, key)
	// sólo se libera una reserva en curso, nunca una clave ya asociada a un pedido
	if e, ok := s.m[k]; ok && e.rec.OrderID == "" {
		delete(s.m, k)
	}
	return nil
}

func (s *IdempotencyStore) expired(e idemEntry) bool {
	return !e.expires.IsZero() && s.now().After(e.expires)
}

func idemKey(userID, key string) string { return userID + "\x00" + key }
