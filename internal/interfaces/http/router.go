package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/vittoswine/vittos-api/internal/application/analytics"
	"github.com/vittoswine/vittos-api/internal/application/auth"
	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/internal/application/usecase"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	ProductUC   *usecase.ProductUseCase
	UserUC      *usecase.UserUseCase
	Orders      *orders.Service
	Checkout    *orders.CheckoutUseCase
	Documents   *orders.DocumentsUseCase
	DashboardUC *appanalytics.DashboardUseCase
	ServiceName string
	Checks      map[string]Pinger
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	health := NewHealthHandler(deps.ServiceName, deps.Checks)
	app.Get("/health", health.Live)
	app.Get("/readyz", health.Ready)

	api := app.Group("/api")
	authMW := AuthMiddleware(deps.JWTSecret)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Products: lectura pública, escritura admin
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", authMW, adminOnly, productHandler.Create)
	products.Put("/:id", authMW, adminOnly, productHandler.Update)
	products.Delete("/:id", authMW, adminOnly, productHandler.Delete)

	// Users (protegido; /me antes de /:id)
	users := api.Group("/users", authMW)
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/me", userHandler.Me)
	users.Put("/me", userHandler.UpdateMe)
	users.Get("/", adminOnly, userHandler.List)
	users.Put("/:id", adminOnly, userHandler.Update)
	users.Delete("/:id", adminOnly, userHandler.Delete)

	// Orders (protegido)
	ordersGroup := api.Group("/orders", authMW)
	orderHandler := NewOrderHandler(deps.Orders, deps.Checkout, deps.Documents)
	ordersGroup.Post("/", orderHandler.Create)
	ordersGroup.Get("/mine", orderHandler.Mine)
	ordersGroup.Get("/", adminOnly, orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Put("/:id/status", adminOnly, orderHandler.UpdateStatus)
	ordersGroup.Get("/:id/receipt", orderHandler.Receipt)
	ordersGroup.Get("/:id/dispatch-guide", adminOnly, orderHandler.DispatchGuide)

	// Dashboard (admin)
	dashboard := api.Group("/dashboard", authMW, adminOnly)
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dashboard.Get("/summary", dashboardHandler.GetSummary)
}
