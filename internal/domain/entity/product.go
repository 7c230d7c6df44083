package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un vino del catálogo.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta vigente
	Stock       int
	Category    string // viña o marca
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
