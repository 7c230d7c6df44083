package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"

	_ "github.com/vittoswine/vittos-api/docs"
	appanalytics "github.com/vittoswine/vittos-api/internal/application/analytics"
	"github.com/vittoswine/vittos-api/internal/application/auth"
	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/internal/application/usecase"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
	"github.com/vittoswine/vittos-api/internal/infrastructure/dispatch"
	infrakafka "github.com/vittoswine/vittos-api/internal/infrastructure/kafka"
	"github.com/vittoswine/vittos-api/internal/infrastructure/memory"
	infrapdf "github.com/vittoswine/vittos-api/internal/infrastructure/pdf"
	"github.com/vittoswine/vittos-api/internal/infrastructure/postgres"
	infraredis "github.com/vittoswine/vittos-api/internal/infrastructure/redis"
	httpRouter "github.com/vittoswine/vittos-api/internal/interfaces/http"
	"github.com/vittoswine/vittos-api/pkg/config"
	"github.com/vittoswine/vittos-api/pkg/logger"
)

// @title                       Vitto's Wine API
// @version                     1.0
// @description                 API de la tienda Vitto's Wine: catálogo, checkout y ciclo de vida de pedidos.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>

// storage repositorios y transacción según DB_DRIVER.
type storage struct {
	users     repository.UserRepository
	products  repository.ProductRepository
	orders    repository.OrderRepository
	analytics repository.AnalyticsRepository
	tx        orders.OrderTxRunner
	ping      httpRouter.Pinger
	close     func()
}

func main() {
	_ = godotenv.Load() // .env opcional en local

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Str("pricing", cfg.Shop.Pricing).
		Msg("iniciando aplicación")

	ctx := context.Background()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	checks := map[string]httpRouter.Pinger{"db": store.ping}

	// Idempotencia del checkout: Redis si está configurado, si no en memoria del proceso.
	idemTTL := time.Duration(cfg.Redis.IdempotencyTTL) * time.Hour
	var idem orders.IdempotencyStore = memory.NewIdempotencyStore(idemTTL)
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		redisIdem := infraredis.NewIdempotencyStore(rdb, idemTTL)
		idem = redisIdem
		checks["redis"] = redisIdem
	}

	// Eventos de pedidos: Kafka si hay brokers, si no se descartan.
	var events orders.EventPublisher = orders.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		pub := infrakafka.NewEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders, log)
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn().Err(err).Msg("cerrar productor Kafka")
			}
		}()
		events = pub
	}

	orderSvc := orders.NewService(store.tx, store.orders, events, log, cfg.Shop.ShippingCost)
	checkoutUC := orders.NewCheckoutUseCase(orderSvc, store.products, idem, log, orders.PricingMode(cfg.Shop.Pricing))
	documentsUC := orders.NewDocumentsUseCase(orderSvc, infrapdf.NewReceiptGenerator(), dispatch.NewGuideBuilder(), orders.ShopInfo{
		Name:     cfg.Shop.Name,
		TaxID:    cfg.Shop.TaxID,
		Address:  cfg.Shop.Address,
		Currency: cfg.Shop.Currency,
	})
	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))
	app.Use(httpRouter.RequestLogger(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Vitto's Wine API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		ProductUC:   usecase.NewProductUseCase(store.products),
		UserUC:      usecase.NewUserUseCase(store.users),
		Orders:      orderSvc,
		Checkout:    checkoutUC,
		Documents:   documentsUC,
		DashboardUC: appanalytics.NewDashboardUseCase(store.analytics),
		ServiceName: cfg.App.Name,
		Checks:      checks,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Warn().Msg("DB_DRIVER=memory: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			users:     s.Users(),
			products:  s.Products(),
			orders:    s.Orders(),
			analytics: s.Analytics(),
			tx:        s,
			ping:      s,
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &storage{
		users:     postgres.NewUserRepository(pool),
		products:  postgres.NewProductRepository(pool),
		orders:    postgres.NewOrderRepository(pool),
		analytics: postgres.NewAnalyticsRepository(pool),
		tx:        postgres.NewTxRunner(pool),
		ping:      postgres.NewPinger(pool),
		close:     pool.Close,
	}, nil
}
