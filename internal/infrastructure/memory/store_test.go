package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vittoswine/vittos-api/internal/domain"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
	"github.com/vittoswine/vittos-api/internal/infrastructure/memory"
)

func seed(t *testing.T) (*memory.Store, *entity.User, *entity.Product) {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	u := &entity.User{ID: "u-1", Name: "Ana", Email: "ana@vittos.cl", Role: entity.RoleCustomer}
	p := &entity.Product{ID: "p-1", Name: "Carmenere", Price: decimal.NewFromInt(10), Category: "Santa Rita"}
	require.NoError(t, s.Users().Create(ctx, u))
	require.NoError(t, s.Products().Create(ctx, p))
	return s, u, p
}

func header(id, userID string, at time.Time) *entity.Order {
	return &entity.Order{ID: id, UserID: userID, Status: entity.OrderStatusPending, Total: decimal.NewFromInt(13), CreatedAt: at}
}

func TestRunOrders_CommitAplicaTodo(t *testing.T) {
	s, u, p := seed(t)
	ctx := context.Background()

	err := s.RunOrders(ctx, func(or repository.OrderRepository, _ repository.ProductRepository) error {
		require.NoError(t, or.Create(ctx, header("o-1", u.ID, time.Now())))
		return or.CreateItem(ctx, &entity.OrderItem{ID: "i-1", OrderID: "o-1", ProductID: p.ID, Quantity: 1, UnitPrice: p.Price})
	})
	require.NoError(t, err)

	got, err := s.Orders().GetByID(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Carmenere", got.Items[0].ProductName)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Ana", got.Customer.Name)
}

func TestRunOrders_ProductoInexistenteNoDejaRastro(t *testing.T) {
	s, u, p := seed(t)
	ctx := context.Background()

	err := s.RunOrders(ctx, func(or repository.OrderRepository, _ repository.ProductRepository) error {
		if err := or.Create(ctx, header("o-1", u.ID, time.Now())); err != nil {
			return err
		}
		if err := or.CreateItem(ctx, &entity.OrderItem{ID: "i-1", OrderID: "o-1", ProductID: p.ID, Quantity: 1}); err != nil {
			return err
		}
		return or.CreateItem(ctx, &entity.OrderItem{ID: "i-2", OrderID: "o-1", ProductID: "no-existe", Quantity: 1})
	})
	require.ErrorIs(t, err, memory.ErrForeignKey)

	n, err := s.Orders().CountByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// sin líneas huérfanas: el producto se puede borrar
	assert.NoError(t, s.Products().Delete(ctx, p.ID))
}

func TestRunOrders_ItemHookSimulaFalla(t *testing.T) {
	s, u, p := seed(t)
	ctx := context.Background()
	s.ItemHook = func(*entity.OrderItem) error { return errors.New("disco lleno") }

	err := s.RunOrders(ctx, func(or repository.OrderRepository, _ repository.ProductRepository) error {
		if err := or.Create(ctx, header("o-1", u.ID, time.Now())); err != nil {
			return err
		}
		return or.CreateItem(ctx, &entity.OrderItem{ID: "i-1", OrderID: "o-1", ProductID: p.ID, Quantity: 1})
	})
	require.Error(t, err)

	got, err := s.Orders().GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrders_ListByUserAisladoYOrdenado(t *testing.T) {
	s, u, p := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Users().Create(ctx, &entity.User{ID: "u-2", Email: "otro@vittos.cl"}))

	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, o := range []*entity.Order{header("a", u.ID, t0), header("b", u.ID, t0.Add(time.Hour)), header("c", "u-2", t0)} {
		require.NoError(t, s.Orders().Create(ctx, o))
		require.NoError(t, s.Orders().CreateItem(ctx, &entity.OrderItem{ID: "i-" + o.ID, OrderID: o.ID, ProductID: p.ID, Quantity: 1}))
	}

	mine, err := s.Orders().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "b", mine[0].ID)
	assert.Equal(t, "a", mine[1].ID)
	assert.Nil(t, mine[0].Customer)

	all, err := s.Orders().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, o := range all {
		assert.NotNil(t, o.Customer)
	}
}

func TestOrders_UpdateStatusCAS(t *testing.T) {
	s, u, _ := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Orders().Create(ctx, header("o-1", u.ID, time.Now())))

	ok, err := s.Orders().UpdateStatus(ctx, "o-1", entity.OrderStatusShipped, entity.OrderStatusDelivered)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Orders().UpdateStatus(ctx, "o-1", entity.OrderStatusPending, entity.OrderStatusProcessing)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsersYProductos_Restricciones(t *testing.T) {
	s, u, p := seed(t)
	ctx := context.Background()

	err := s.Users().Create(ctx, &entity.User{ID: "u-9", Email: "ANA@vittos.cl"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	require.NoError(t, s.Orders().Create(ctx, header("o-1", u.ID, time.Now())))
	require.NoError(t, s.Orders().CreateItem(ctx, &entity.OrderItem{ID: "i-1", OrderID: "o-1", ProductID: p.ID, Quantity: 1}))

	assert.ErrorIs(t, s.Products().Delete(ctx, p.ID), domain.ErrInUse)
	assert.ErrorIs(t, s.Users().Delete(ctx, u.ID), domain.ErrInUse)
	assert.ErrorIs(t, s.Products().Delete(ctx, "zzz"), domain.ErrNotFound)
}

func TestProducts_ListFiltraYPagina(t *testing.T) {
	s, _, _ := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p-2", Name: "Almaviva", Category: "Concha y Toro"}))
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p-3", Name: "Don Melchor", Category: "concha y toro"}))

	list, err := s.Products().List(ctx, repository.ProductFilter{Category: "CONCHA Y TORO"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Almaviva", list[0].Name)

	list, err = s.Products().List(ctx, repository.ProductFilter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Carmenere", list[0].Name)

	n, err := s.Products().Count(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAnalytics_ExcluyeCancelados(t *testing.T) {
	s, u, p := seed(t)
	ctx := context.Background()
	now := time.Now().UTC()

	keep := header("o-1", u.ID, now)
	gone := header("o-2", u.ID, now)
	gone.Status = entity.OrderStatusCancelled
	for _, o := range []*entity.Order{keep, gone} {
		require.NoError(t, s.Orders().Create(ctx, o))
		require.NoError(t, s.Orders().CreateItem(ctx, &entity.OrderItem{ID: "i-" + o.ID, OrderID: o.ID, ProductID: p.ID, Quantity: 1, UnitPrice: p.Price}))
	}

	a := s.Analytics()
	rev, n, err := a.GetRevenue(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, rev.Equal(decimal.NewFromInt(13)))

	top, err := a.GetTopProducts(ctx, now.Add(-time.Minute), now.Add(time.Minute), 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 1, top[0].Units)

	byStatus, err := a.CountOrdersByStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)
}
