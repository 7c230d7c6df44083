package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/infrastructure/memory"
	"github.com/vittoswine/vittos-api/pkg/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// recordingPublisher guarda los eventos publicados; fail fuerza error de publicación.
type recordingPublisher struct {
	mu     sync.Mutex
	events []orders.OrderEvent
	fail   bool
}

func (p *recordingPublisher) Publish(_ context.Context, evt orders.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker caído")
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store  *memory.Store
	svc    *orders.Service
	events *recordingPublisher
}

// newFixture: dos clientes, dos vinos (10.00 y 5.00) y envío 3.00.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now().UTC()

	for _, u := range []*entity.User{
		{ID: "u-ana", Name: "Ana", Email: "ana@vittos.cl", Role: entity.RoleCustomer, CreatedAt: now},
		{ID: "u-beto", Name: "Beto", Email: "beto@vittos.cl", Role: entity.RoleCustomer, CreatedAt: now},
	} {
		require.NoError(t, store.Users().Create(ctx, u))
	}
	for _, p := range []*entity.Product{
		{ID: "p-carmenere", Name: "Carmenere Reserva", Price: dec("10.00"), Stock: 10, Category: "Santa Rita"},
		{ID: "p-rose", Name: "Rosé", Price: dec("5.00"), Stock: 10, Category: "Cono Sur"},
	} {
		require.NoError(t, store.Products().Create(ctx, p))
	}

	events := &recordingPublisher{}
	svc := orders.NewService(store, store.Orders(), events, logger.Nop(), dec("3.00"))
	return &fixture{store: store, svc: svc, events: events}
}

func (f *fixture) countOrders(t *testing.T, userID string) int {
	t.Helper()
	n, err := f.store.Orders().CountByUser(context.Background(), userID)
	require.NoError(t, err)
	return n
}
