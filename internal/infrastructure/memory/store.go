// Package memory implementa los puertos de persistencia en memoria.
// Se usa en tests y con DB_DRIVER=memory para levantar la API sin PostgreSQL.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/internal/domain"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/order"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
)

// ErrForeignKey equivale a la violación de llave foránea de PostgreSQL.
var ErrForeignKey = errors.New("memory: referencia a registro inexistente")

var (
	_ repository.UserRepository      = (*UserRepo)(nil)
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.OrderRepository     = (*OrderRepo)(nil)
	_ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)
	_ orders.OrderTxRunner           = (*Store)(nil)
)

// Store guarda todas las tablas. Las transacciones se serializan con el mutex.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*entity.User
	products map[string]*entity.Product
	orders   map[string]*entity.Order // sólo cabeceras
	items    []entity.OrderItem       // orden de llegada global

	// ItemHook se invoca antes de insertar cada línea; si devuelve error la inserción falla.
	ItemHook func(item *entity.OrderItem) error
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*entity.User),
		products: make(map[string]*entity.Product),
		orders:   make(map[string]*entity.Order),
	}
}

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Products repositorio de productos (fuera de transacción).
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Orders repositorio de pedidos en modo autocommit.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s: s} }

// Analytics consultas del panel.
func (s *Store) Analytics() *AnalyticsRepo { return &AnalyticsRepo{s: s} }

// Ping siempre responde.
func (s *Store) Ping(context.Context) error { return nil }

// RunOrders ejecuta fn con repos que acumulan cambios; sólo se aplican si fn termina sin error.
func (s *Store) RunOrders(ctx context.Context, fn func(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txOrderRepo{s: s}
	if err := fn(tx, &ProductRepo{s: s, held: true}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	for _, o := range tx.orders {
		s.orders[o.ID] = o
	}
	s.items = append(s.items, tx.items...)
	return nil
}

// ── usuarios ─────────────────────────────────────────────────────────────────

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.emailTaken(u.Email, "") {
		return domain.ErrEmailAlreadyExists
	}
	if _, ok := r.s.users[u.ID]; ok {
		return domain.ErrDuplicate
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if r.s.emailTaken(u.Email, u.ID) {
		return domain.ErrEmailAlreadyExists
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, limit, offset), nil
}

func (r *UserRepo) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	for _, o := range r.s.orders {
		if o.UserID == id {
			return domain.ErrInUse
		}
	}
	delete(r.s.users, id)
	return nil
}

func (s *Store) emailTaken(email, exceptID string) bool {
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// ── productos ────────────────────────────────────────────────────────────────

// ProductRepo productos en memoria. held indica que el lock ya lo tiene la transacción.
type ProductRepo struct {
	s    *Store
	held bool
}

func (r *ProductRepo) rlock() func() {
	if r.held {
		return func() {}
	}
	r.s.mu.RLock()
	return r.s.mu.RUnlock
}

func (r *ProductRepo) lock() func() {
	if r.held {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	defer r.lock()()
	if _, ok := r.s.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.rlock()()
	if p, ok := r.s.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *ProductRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Product, error) {
	defer r.rlock()()
	list := make([]*entity.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok && !seen[id] {
			seen[id] = true
			cp := *p
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *ProductRepo) GetByName(_ context.Context, name string) (*entity.Product, error) {
	defer r.rlock()()
	for _, p := range r.s.products {
		if strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	defer r.lock()()
	if _, ok := r.s.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *ProductRepo) List(_ context.Context, f repository.ProductFilter, limit, offset int) ([]*entity.Product, error) {
	defer r.rlock()()
	list := r.s.filterProducts(f)
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return page(list, limit, offset), nil
}

func (r *ProductRepo) Count(_ context.Context, f repository.ProductFilter) (int, error) {
	defer r.rlock()()
	return len(r.s.filterProducts(f)), nil
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	defer r.lock()()
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	for _, it := range r.s.items {
		if it.ProductID == id {
			return domain.ErrInUse
		}
	}
	delete(r.s.products, id)
	return nil
}

func (s *Store) filterProducts(f repository.ProductFilter) []*entity.Product {
	list := make([]*entity.Product, 0, len(s.products))
	for _, p := range s.products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		cp := *p
		list = append(list, &cp)
	}
	return list
}

// ── pedidos ──────────────────────────────────────────────────────────────────

// OrderRepo pedidos en memoria; cada escritura se aplica de inmediato.
type OrderRepo struct{ s *Store }

func (r *OrderRepo) Create(_ context.Context, o *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkOrderHeader(o, nil); err != nil {
		return err
	}
	r.s.orders[o.ID] = cloneHeader(o)
	return nil
}

func (r *OrderRepo) CreateItem(_ context.Context, it *entity.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkItem(it, nil); err != nil {
		return err
	}
	r.s.items = append(r.s.items, stripItem(*it))
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.getOrder(id), nil
}

func (r *OrderRepo) ListByUser(_ context.Context, userID string) ([]*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listOrders(func(o *entity.Order) bool { return o.UserID == userID }, false), nil
}

func (r *OrderRepo) ListAll(context.Context) ([]*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listOrders(func(*entity.Order) bool { return true }, true), nil
}

func (r *OrderRepo) UpdateStatus(_ context.Context, id string, from, to entity.OrderStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *OrderRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, o := range r.s.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

// txOrderRepo acumula cabeceras y líneas hasta el commit de RunOrders.
type txOrderRepo struct {
	s      *Store
	orders []*entity.Order
	items  []entity.OrderItem
}

func (t *txOrderRepo) Create(_ context.Context, o *entity.Order) error {
	if err := t.s.checkOrderHeader(o, t.orders); err != nil {
		return err
	}
	t.orders = append(t.orders, cloneHeader(o))
	return nil
}

func (t *txOrderRepo) CreateItem(_ context.Context, it *entity.OrderItem) error {
	if err := t.s.checkItem(it, t.orders); err != nil {
		return err
	}
	t.items = append(t.items, stripItem(*it))
	return nil
}

func (t *txOrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	return t.s.getOrder(id), nil
}

func (t *txOrderRepo) ListByUser(_ context.Context, userID string) ([]*entity.Order, error) {
	return t.s.listOrders(func(o *entity.Order) bool { return o.UserID == userID }, false), nil
}

func (t *txOrderRepo) ListAll(context.Context) ([]*entity.Order, error) {
	return t.s.listOrders(func(*entity.Order) bool { return true }, true), nil
}

func (t *txOrderRepo) UpdateStatus(_ context.Context, id string, from, to entity.OrderStatus) (bool, error) {
	return false, fmt.Errorf("memory: UpdateStatus no disponible dentro de RunOrders")
}

func (t *txOrderRepo) CountByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, o := range t.s.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) checkOrderHeader(o *entity.Order, staged []*entity.Order) error {
	if _, ok := s.users[o.UserID]; !ok {
		return fmt.Errorf("insert order: usuario %s: %w", o.UserID, ErrForeignKey)
	}
	if _, ok := s.orders[o.ID]; ok {
		return fmt.Errorf("insert order: %w", domain.ErrDuplicate)
	}
	for _, st := range staged {
		if st.ID == o.ID {
			return fmt.Errorf("insert order: %w", domain.ErrDuplicate)
		}
	}
	return nil
}

func (s *Store) checkItem(it *entity.OrderItem, staged []*entity.Order) error {
	if s.ItemHook != nil {
		if err := s.ItemHook(it); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	if _, ok := s.products[it.ProductID]; !ok {
		return fmt.Errorf("insert order item: producto %s: %w", it.ProductID, ErrForeignKey)
	}
	if _, ok := s.orders[it.OrderID]; ok {
		return nil
	}
	for _, st := range staged {
		if st.ID == it.OrderID {
			return nil
		}
	}
	return fmt.Errorf("insert order item: pedido %s: %w", it.OrderID, ErrForeignKey)
}

// getOrder arma el pedido con líneas y cliente; requiere el lock tomado.
func (s *Store) getOrder(id string) *entity.Order {
	if _, ok := s.orders[id]; !ok {
		return nil
	}
	list := s.listOrders(func(o *entity.Order) bool { return o.ID == id }, true)
	return list[0]
}

// listOrders reproduce el join plano y lo agrupa igual que el repositorio SQL.
func (s *Store) listOrders(match func(*entity.Order) bool, withCustomer bool) []*entity.Order {
	itemsByOrder := make(map[string][]entity.OrderItem)
	for _, it := range s.items {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}

	headers := make([]*entity.Order, 0)
	for _, o := range s.orders {
		if match(o) {
			headers = append(headers, o)
		}
	}
	sort.Slice(headers, func(i, j int) bool {
		if !headers[i].CreatedAt.Equal(headers[j].CreatedAt) {
			return headers[i].CreatedAt.After(headers[j].CreatedAt)
		}
		return headers[i].ID < headers[j].ID
	})

	var rows []order.Row
	for _, o := range headers {
		base := order.Row{
			OrderID: o.ID, UserID: o.UserID, Status: o.Status,
			ShippingCost: o.ShippingCost, Total: o.Total,
			CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt,
		}
		if withCustomer {
			if u, ok := s.users[o.UserID]; ok {
				base.Customer = &entity.OrderCustomer{Name: u.Name, Email: u.Email, Phone: u.Phone, Address: u.Address}
			}
		}
		its := itemsByOrder[o.ID]
		if len(its) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, it := range its {
			row := base
			item := it
			if p, ok := s.products[it.ProductID]; ok {
				item.ProductName, item.Category, item.ImageURL = p.Name, p.Category, p.ImageURL
			}
			row.Item = &item
			rows = append(rows, row)
		}
	}
	return order.GroupRows(rows)
}

func cloneHeader(o *entity.Order) *entity.Order {
	cp := *o
	cp.Items = nil
	cp.Customer = nil
	return &cp
}

func stripItem(it entity.OrderItem) entity.OrderItem {
	it.ProductName, it.Category, it.ImageURL = "", "", ""
	return it
}

// ── analítica ────────────────────────────────────────────────────────────────

// AnalyticsRepo consultas del panel sobre el store.
type AnalyticsRepo struct{ s *Store }

func (r *AnalyticsRepo) CountOrdersByStatus(context.Context) ([]repository.StatusCountResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	agg := make(map[entity.OrderStatus]*repository.StatusCountResult)
	for _, o := range r.s.orders {
		row, ok := agg[o.Status]
		if !ok {
			row = &repository.StatusCountResult{Status: o.Status, Amount: decimal.Zero}
			agg[o.Status] = row
		}
		row.Count++
		row.Amount = row.Amount.Add(o.Total)
	}
	out := make([]repository.StatusCountResult, 0, len(agg))
	for _, row := range agg {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (r *AnalyticsRepo) CountProducts(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.products), nil
}

func (r *AnalyticsRepo) CountUsers(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

func (r *AnalyticsRepo) GetRevenue(_ context.Context, start, end time.Time) (decimal.Decimal, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum, n := decimal.Zero, 0
	for _, o := range r.s.orders {
		if o.Status == entity.OrderStatusCancelled || o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
			continue
		}
		sum = sum.Add(o.Total)
		n++
	}
	return sum, n, nil
}

func (r *AnalyticsRepo) GetTopProducts(_ context.Context, start, end time.Time, limit int) ([]repository.TopProductResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	agg := make(map[string]*repository.TopProductResult)
	for _, it := range r.s.items {
		o, ok := r.s.orders[it.OrderID]
		if !ok || o.Status == entity.OrderStatusCancelled || o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
			continue
		}
		row, ok := agg[it.ProductID]
		if !ok {
			row = &repository.TopProductResult{ProductID: it.ProductID, Revenue: decimal.Zero}
			if p, ok := r.s.products[it.ProductID]; ok {
				row.Name = p.Name
			}
			agg[it.ProductID] = row
		}
		row.Units += it.Quantity
		row.Revenue = row.Revenue.Add(it.LineTotal())
	}
	out := make([]repository.TopProductResult, 0, len(agg))
	for _, row := range agg {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
