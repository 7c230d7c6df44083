package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 4000, cfg.HTTP.Port)
	assert.Equal(t, "*", cfg.HTTP.CORSOrigins)
	assert.True(t, cfg.Shop.ShippingCost.Equal(decimal.NewFromInt(3135)), "envío por defecto de la tienda")
	assert.Equal(t, PricingCatalog, cfg.Shop.Pricing)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("SHOP_SHIPPING_COST", "3.00")
	v.Set("SHOP_PRICING", "CLIENT")
	v.Set("HTTP_PORT", "9090")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	v.Set("DB_DRIVER", "memory")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "3", cfg.Shop.ShippingCost.String())
	assert.Equal(t, PricingClient, cfg.Shop.Pricing)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, DriverMemory, cfg.DB.Driver)
}

func TestFromViper_ShippingInvalido(t *testing.T) {
	v := viper.New()
	v.Set("SHOP_SHIPPING_COST", "gratis")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Error(t, cfg.Validate(), "sin JWT_SECRET no debe validar")

	cfg.JWT.Secret = "s3cr3t"
	assert.NoError(t, cfg.Validate())

	cfg.Shop.ShippingCost = decimal.RequireFromString("3.005")
	assert.Error(t, cfg.Validate(), "envío con fracción de centavo")
	cfg.Shop.ShippingCost = decimal.RequireFromString("3.00")

	cfg.Shop.Pricing = "gratis"
	assert.Error(t, cfg.Validate())
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "vinos", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/vinos?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x/y"
	assert.Equal(t, "postgres://x/y", c.ConnectionString())
}
