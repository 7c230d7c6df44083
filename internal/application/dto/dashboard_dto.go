package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	TotalOrders   int `json:"total_orders"`
	TotalProducts int `json:"total_products"`
	TotalUsers    int `json:"total_users"`

	OrdersByStatus []StatusCountDTO `json:"orders_by_status"`

	// Pedidos no cancelados
	TodaySales   decimal.Decimal `json:"today_sales"`
	TodayOrders  int             `json:"today_orders"`
	MonthlySales decimal.Decimal `json:"monthly_sales"`
	MonthOrders  int             `json:"month_orders"`

	TopProducts []TopProductDTO `json:"top_products"`

	DateLabel string `json:"date_label"` // ej: "Mayo 2024"
}

// StatusCountDTO pedidos por estado.
type StatusCountDTO struct {
	Status      string          `json:"status"`
	StatusLabel string          `json:"status_label"`
	Count       int             `json:"count"`
	Amount      decimal.Decimal `json:"amount"`
}

// TopProductDTO producto más vendido del mes.
type TopProductDTO struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}
