// Package analytics contiene los casos de uso del panel de administración.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/application/dto"
	"github.com/vittoswine/vittos-api/internal/domain/order"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
)

const dashboardTopProducts = 5 // número de vinos en el widget del dashboard

// DashboardUseCase genera el resumen del panel: conteos generales y ventas del día y del mes.
//
// Fuente de datos: AnalyticsRepository (consultas read-only).
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(analyticsRepo repository.AnalyticsRepository) *DashboardUseCase {
	return &DashboardUseCase{analyticsRepo: analyticsRepo, now: time.Now}
}

// WithClock fija el reloj (tests).
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetSummary construye el DashboardSummaryDTO.
//
// Cuatro llamadas en paralelo además de los conteos:
//  1. GetRevenue(hoy)            → TodaySales + TodayOrders
//  2. GetRevenue(mes)            → MonthlySales + MonthOrders
//  3. GetTopProducts(mes, top 5) → TopProducts
//  4. CountOrdersByStatus        → OrdersByStatus + TotalOrders
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	now := uc.now()

	// ── Rangos de fecha [inicio, fin) ─────────────────────────────────────────
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	// ── Goroutines para paralelizar las consultas ─────────────────────────────
	type revenueResult struct {
		amount decimal.Decimal
		orders int
		err    error
	}
	type topResult struct {
		rows []repository.TopProductResult
		err  error
	}
	type statusResult struct {
		rows []repository.StatusCountResult
		err  error
	}

	todayCh := make(chan revenueResult, 1)
	monthCh := make(chan revenueResult, 1)
	topCh := make(chan topResult, 1)
	statusCh := make(chan statusResult, 1)

	go func() {
		amount, n, err := uc.analyticsRepo.GetRevenue(ctx, todayStart, todayEnd)
		todayCh <- revenueResult{amount, n, err}
	}()
	go func() {
		amount, n, err := uc.analyticsRepo.GetRevenue(ctx, monthStart, todayEnd)
		monthCh <- revenueResult{amount, n, err}
	}()
	go func() {
		rows, err := uc.analyticsRepo.GetTopProducts(ctx, monthStart, todayEnd, dashboardTopProducts)
		topCh <- topResult{rows, err}
	}()
	go func() {
		rows, err := uc.analyticsRepo.CountOrdersByStatus(ctx)
		statusCh <- statusResult{rows, err}
	}()

	products, err := uc.analyticsRepo.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: conteo de productos: %w", err)
	}
	users, err := uc.analyticsRepo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: conteo de usuarios: %w", err)
	}

	today := <-todayCh
	month := <-monthCh
	top := <-topCh
	status := <-statusCh

	if today.err != nil {
		return nil, fmt.Errorf("dashboard: ventas de hoy: %w", today.err)
	}
	if month.err != nil {
		return nil, fmt.Errorf("dashboard: ventas del mes: %w", month.err)
	}
	if top.err != nil {
		return nil, fmt.Errorf("dashboard: top productos: %w", top.err)
	}
	if status.err != nil {
		return nil, fmt.Errorf("dashboard: pedidos por estado: %w", status.err)
	}

	// ── Construir DTO ──────────────────────────────────────────────────────────
	summary := &dto.DashboardSummaryDTO{
		TotalProducts:  products,
		TotalUsers:     users,
		OrdersByStatus: make([]dto.StatusCountDTO, 0, len(status.rows)),
		TodaySales:     today.amount.Round(2),
		TodayOrders:    today.orders,
		MonthlySales:   month.amount.Round(2),
		MonthOrders:    month.orders,
		TopProducts:    make([]dto.TopProductDTO, 0, len(top.rows)),
		DateLabel:      monthLabel(now),
	}
	for _, row := range status.rows {
		summary.TotalOrders += row.Count
		summary.OrdersByStatus = append(summary.OrdersByStatus, dto.StatusCountDTO{
			Status:      string(row.Status),
			StatusLabel: order.Label(row.Status),
			Count:       row.Count,
			Amount:      row.Amount.Round(2),
		})
	}
	for _, row := range top.rows {
		summary.TopProducts = append(summary.TopProducts, dto.TopProductDTO{
			ProductID:    row.ProductID,
			ProductName:  row.Name,
			QuantitySold: row.Units,
			TotalRevenue: row.Revenue.Round(2),
		})
	}
	return summary, nil
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
