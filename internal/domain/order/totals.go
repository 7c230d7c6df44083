package order

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/domain"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

// MaxItems límite de líneas por pedido.
const MaxItems = 100

// LineInput línea solicitada: producto, cantidad y precio unitario a congelar.
type LineInput struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// ValidateLines verifica que el carrito no esté vacío y que cada línea sea coherente.
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return domain.NewValidationError("items", "el pedido debe contener al menos un producto")
	}
	if len(lines) > MaxItems {
		return domain.NewValidationError("items", "el pedido no puede superar %d líneas", MaxItems)
	}
	for i, l := range lines {
		if l.ProductID == "" {
			return domain.NewValidationError(itemField(i, "product_id"), "es obligatorio")
		}
		if l.Quantity < 1 {
			return domain.NewValidationError(itemField(i, "quantity"), "debe ser mayor o igual a 1")
		}
		if l.UnitPrice.IsNegative() {
			return domain.NewValidationError(itemField(i, "unit_price"), "no puede ser negativo")
		}
		// order_items.unit_price es NUMERIC(12,2): más decimales romperían suma(líneas) + envío = total
		if !l.UnitPrice.Equal(l.UnitPrice.Round(2)) {
			return domain.NewValidationError(itemField(i, "unit_price"), "admite como máximo 2 decimales")
		}
	}
	return nil
}

// Subtotal suma de cantidad * precio unitario, sin redondear.
func Subtotal(lines []LineInput) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Total subtotal + envío, redondeado una sola vez a 2 decimales (mitad hacia arriba).
func Total(lines []LineInput, shipping decimal.Decimal) decimal.Decimal {
	return Subtotal(lines).Add(shipping).Round(2)
}

// SameAmount compara montos a 2 decimales.
func SameAmount(a, b decimal.Decimal) bool {
	return a.Round(2).Equal(b.Round(2))
}

// New arma un pedido pendiente con ids generados. El total declarado debe coincidir
// con subtotal + envío; de lo contrario es un error de validación.
func New(userID string, lines []LineInput, shipping, total decimal.Decimal, now time.Time) (*entity.Order, error) {
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "es obligatorio")
	}
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}
	expected := Total(lines, shipping)
	if !SameAmount(expected, total) {
		return nil, domain.NewValidationError("total", "no coincide con subtotal + envío (esperado %s)", expected.StringFixed(2))
	}

	o := &entity.Order{
		ID:           uuid.New().String(),
		UserID:       userID,
		Status:       entity.OrderStatusPending,
		ShippingCost: shipping,
		Total:        expected,
		CreatedAt:    now,
		UpdatedAt:    now,
		Items:        make([]entity.OrderItem, 0, len(lines)),
	}
	for _, l := range lines {
		o.Items = append(o.Items, entity.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return o, nil
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}
