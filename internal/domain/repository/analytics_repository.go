package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

// StatusCountResult cantidad de pedidos y monto acumulado por estado.
type StatusCountResult struct {
	Status entity.OrderStatus
	Count  int
	Amount decimal.Decimal
}

// TopProductResult producto más vendido en un período.
type TopProductResult struct {
	ProductID string
	Name      string
	Units     int
	Revenue   decimal.Decimal
}

// AnalyticsRepository consultas read-only para el panel de administración.
type AnalyticsRepository interface {
	CountOrdersByStatus(ctx context.Context) ([]StatusCountResult, error)
	CountProducts(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)

	// GetRevenue suma los totales de pedidos no cancelados creados en [start, end).
	GetRevenue(ctx context.Context, start, end time.Time) (revenue decimal.Decimal, orders int, err error)

	// GetTopProducts productos con mayor ingreso (cantidad * precio congelado) en [start, end),
	// excluyendo pedidos cancelados.
	GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]TopProductResult, error)
}
