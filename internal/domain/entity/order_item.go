package entity

import "github.com/shopspring/decimal"

// OrderItem representa una línea de un pedido.
// UnitPrice es el precio congelado al momento de la compra.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal

	// Datos del producto al leer (join); no se persisten en la línea.
	ProductName string
	Category    string
	ImageURL    string
}

// LineTotal cantidad * precio unitario.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
