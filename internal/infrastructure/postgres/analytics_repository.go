package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para el panel de administración.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// CountOrdersByStatus cantidad y monto de pedidos agrupados por estado.
func (r *AnalyticsRepo) CountOrdersByStatus(ctx context.Context) ([]repository.StatusCountResult, error) {
	const query = `
	SELECT status, COUNT(*), COALESCE(SUM(total), 0)
	FROM orders
	GROUP BY status
	ORDER BY status`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("analytics.CountOrdersByStatus: %w", err)
	}
	defer rows.Close()

	var results []repository.StatusCountResult
	for rows.Next() {
		var row repository.StatusCountResult
		var status string
		if err := rows.Scan(&status, &row.Count, &row.Amount); err != nil {
			return nil, fmt.Errorf("analytics.CountOrdersByStatus scan: %w", err)
		}
		row.Status = entity.OrderStatus(status)
		results = append(results, row)
	}
	return results, rows.Err()
}

// CountProducts total de productos del catálogo.
func (r *AnalyticsRepo) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("analytics.CountProducts: %w", err)
	}
	return n, nil
}

// CountUsers total de usuarios registrados.
func (r *AnalyticsRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("analytics.CountUsers: %w", err)
	}
	return n, nil
}

// GetRevenue ingresos y cantidad de pedidos no cancelados del período.
// COALESCE devuelve cero cuando no hay ventas.
func (r *AnalyticsRepo) GetRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, int, error) {
	const query = `
	SELECT COALESCE(SUM(total), 0), COUNT(*)
	FROM orders
	WHERE created_at >= $1 AND created_at < $2
	  AND status <> 'cancelled'`

	var revenue decimal.Decimal
	var n int
	if err := r.q.QueryRow(ctx, query, start, end).Scan(&revenue, &n); err != nil {
		return decimal.Zero, 0, fmt.Errorf("analytics.GetRevenue: %w", err)
	}
	return revenue, n, nil
}

// GetTopProducts productos con mayor ingreso del período según el precio congelado en cada línea.
func (r *AnalyticsRepo) GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]repository.TopProductResult, error) {
	const query = `
	SELECT p.id, p.name, SUM(oi.quantity), SUM(oi.quantity * oi.unit_price) AS revenue
	FROM order_items oi
	JOIN orders   o ON o.id = oi.order_id
	JOIN products p ON p.id = oi.product_id
	WHERE o.created_at >= $1 AND o.created_at < $2
	  AND o.status <> 'cancelled'
	GROUP BY p.id, p.name
	ORDER BY revenue DESC, p.name
	LIMIT $3`

	rows, err := r.q.Query(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics.GetTopProducts: %w", err)
	}
	defer rows.Close()

	results := make([]repository.TopProductResult, 0, limit)
	for rows.Next() {
		var row repository.TopProductResult
		if err := rows.Scan(&row.ProductID, &row.Name, &row.Units, &row.Revenue); err != nil {
			return nil, fmt.Errorf("analytics.GetTopProducts scan: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
