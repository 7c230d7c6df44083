package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/order"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste la cabecera del pedido.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	query := `
		INSERT INTO orders (id, user_id, status, shipping_cost, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.UserID, string(o.Status), o.ShippingCost, o.Total, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert order: usuario %s inexistente: %w", o.UserID, err)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// CreateItem persiste una línea. Un product_id inexistente viola la FK y aborta la transacción.
func (r *OrderRepo) CreateItem(ctx context.Context, it *entity.OrderItem) error {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	if !isUUID(it.ProductID) {
		return fmt.Errorf("insert order item: product_id %q inválido", it.ProductID)
	}
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert order item: producto %s inexistente: %w", it.ProductID, err)
		}
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

// GetByID obtiene el pedido con sus líneas y los datos del cliente.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `
		SELECT o.id, o.user_id, o.status, o.shipping_cost, o.total, o.created_at, o.updated_at,
		       u.name, u.email, u.phone, u.address
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`
	var o entity.Order
	var status string
	cust := &entity.OrderCustomer{}
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.UserID, &status, &o.ShippingCost, &o.Total, &o.CreatedAt, &o.UpdatedAt,
		&cust.Name, &cust.Email, &cust.Phone, &cust.Address,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Status = entity.OrderStatus(status)
	o.Customer = cust

	itemsQuery := `
		SELECT oi.id, oi.product_id, oi.quantity, oi.unit_price, p.name, p.category, p.image_url
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.seq`
	rows, err := r.q.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	o.Items = []entity.OrderItem{}
	for rows.Next() {
		it := entity.OrderItem{OrderID: o.ID}
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.ProductName, &it.Category, &it.ImageURL); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return &o, nil
}

// ListByUser lista los pedidos de un usuario con sus líneas, más recientes primero.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Order, error) {
	if !isUUID(userID) {
		return []*entity.Order{}, nil
	}
	query := `
		SELECT o.id, o.user_id, o.status, o.shipping_cost, o.total, o.created_at, o.updated_at,
		       oi.id, oi.product_id, oi.quantity, oi.unit_price, p.name, p.category, p.image_url
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id, oi.seq`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders by user: %w", err)
	}
	return r.collect(rows, false)
}

// ListAll lista todos los pedidos con el snapshot del cliente, más recientes primero.
func (r *OrderRepo) ListAll(ctx context.Context) ([]*entity.Order, error) {
	query := `
		SELECT o.id, o.user_id, o.status, o.shipping_cost, o.total, o.created_at, o.updated_at,
		       oi.id, oi.product_id, oi.quantity, oi.unit_price, p.name, p.category, p.image_url,
		       u.name, u.email, u.phone, u.address
		FROM orders o
		JOIN users u ON u.id = o.user_id
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN products p ON p.id = oi.product_id
		ORDER BY o.created_at DESC, o.id, oi.seq`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return r.collect(rows, true)
}

// collect escanea las filas planas del join y las agrupa por pedido.
func (r *OrderRepo) collect(rows pgx.Rows, withCustomer bool) ([]*entity.Order, error) {
	defer rows.Close()

	var flat []order.Row
	for rows.Next() {
		var (
			row       order.Row
			status    string
			itemID    *string
			productID *string
			quantity  *int
			unitPrice decimal.NullDecimal
			pName     *string
			pCategory *string
			pImage    *string
		)
		dest := []any{
			&row.OrderID, &row.UserID, &status, &row.ShippingCost, &row.Total, &row.CreatedAt, &row.UpdatedAt,
			&itemID, &productID, &quantity, &unitPrice, &pName, &pCategory, &pImage,
		}
		var cust entity.OrderCustomer
		if withCustomer {
			dest = append(dest, &cust.Name, &cust.Email, &cust.Phone, &cust.Address)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		row.Status = entity.OrderStatus(status)
		if withCustomer {
			c := cust
			row.Customer = &c
		}
		if itemID != nil {
			row.Item = &entity.OrderItem{
				ID:          *itemID,
				ProductID:   derefStr(productID),
				UnitPrice:   unitPrice.Decimal,
				ProductName: derefStr(pName),
				Category:    derefStr(pCategory),
				ImageURL:    derefStr(pImage),
			}
			if quantity != nil {
				row.Item.Quantity = *quantity
			}
		}
		flat = append(flat, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return order.GroupRows(flat), nil
}

// UpdateStatus compare-and-set sobre el estado observado.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	query := `
		UPDATE orders
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountByUser cantidad de pedidos del usuario.
func (r *OrderRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	if !isUUID(userID) {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders by user: %w", err)
	}
	return n, nil
}
