package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Modos de precio para el checkout.
const (
	PricingCatalog = "catalog" // el servidor toma el precio vigente del catálogo
	PricingClient  = "client"  // se respeta el precio enviado por el cliente (comportamiento heredado)
)

// Drivers de almacenamiento soportados.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App   AppConfig
	DB    DBConfig
	JWT   JWTConfig
	HTTP  HTTPConfig
	Shop  ShopConfig
	Redis RedisConfig
	Kafka KafkaConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo (ej. DATABASE_URL de Neon).
type DBConfig struct {
	Driver      string // postgres | memory
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	CORSOrigins string // lista separada por comas; "*" = cualquiera
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShopConfig parámetros comerciales de la tienda.
type ShopConfig struct {
	Name         string
	TaxID        string
	Address      string
	Currency     string
	ShippingCost decimal.Decimal // costo fijo de envío sumado al subtotal del carrito
	Pricing      string          // catalog | client
}

// RedisConfig conexión opcional a Redis (claves de idempotencia del checkout).
type RedisConfig struct {
	Addr           string // vacío = deshabilitado
	Password       string
	DB             int
	IdempotencyTTL int // horas
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// KafkaConfig publicación opcional de eventos de pedidos.
type KafkaConfig struct {
	Brokers     []string // vacío = deshabilitado
	TopicOrders string
}

// Enabled indica si hay brokers configurados.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, DB_PORT, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	shipping, err := decimal.NewFromString(getString(v, "SHOP_SHIPPING_COST", "3135"))
	if err != nil {
		return nil, fmt.Errorf("SHOP_SHIPPING_COST inválido: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "vittos-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver:      strings.ToLower(getString(v, "DB_DRIVER", DriverPostgres)),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "vittos_wine_db"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "vittos-api"),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 4000),
			CORSOrigins: getString(v, "HTTP_CORS_ORIGINS", "*"),
		},
		Shop: ShopConfig{
			Name:         getString(v, "SHOP_NAME", "Vitto's Wine"),
			TaxID:        getString(v, "SHOP_TAX_ID", ""),
			Address:      getString(v, "SHOP_ADDRESS", ""),
			Currency:     getString(v, "SHOP_CURRENCY", "CLP"),
			ShippingCost: shipping,
			Pricing:      strings.ToLower(getString(v, "SHOP_PRICING", PricingCatalog)),
		},
		Redis: RedisConfig{
			Addr:           getString(v, "REDIS_ADDR", ""),
			Password:       getString(v, "REDIS_PASSWORD", ""),
			DB:             getInt(v, "REDIS_DB", 0),
			IdempotencyTTL: getInt(v, "REDIS_IDEMPOTENCY_TTL_HOURS", 24),
		},
		Kafka: KafkaConfig{
			Brokers:     splitCSV(getString(v, "KAFKA_BROKERS", "")),
			TopicOrders: getString(v, "KAFKA_TOPIC_ORDERS", "orders.events"),
		},
	}
	return cfg, nil
}

// Validate revisa los valores obligatorios para levantar la API.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET es obligatorio")
	}
	if c.Shop.ShippingCost.IsNegative() {
		return fmt.Errorf("SHOP_SHIPPING_COST no puede ser negativo")
	}
	if !c.Shop.ShippingCost.Equal(c.Shop.ShippingCost.Round(2)) {
		return fmt.Errorf("SHOP_SHIPPING_COST admite como máximo 2 decimales")
	}
	if c.Shop.Pricing != PricingCatalog && c.Shop.Pricing != PricingClient {
		return fmt.Errorf("SHOP_PRICING debe ser %q o %q", PricingCatalog, PricingClient)
	}
	if c.DB.Driver != DriverPostgres && c.DB.Driver != DriverMemory {
		return fmt.Errorf("DB_DRIVER debe ser %q o %q", DriverPostgres, DriverMemory)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
