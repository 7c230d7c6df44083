package orders

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/application/dto"
	"github.com/vittoswine/vittos-api/internal/domain"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/order"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
	"github.com/vittoswine/vittos-api/pkg/logger"
)

// PricingMode define de dónde sale el precio unitario congelado en cada línea.
type PricingMode string

const (
	// PricingCatalog usa el precio vigente del producto; el precio del cliente se ignora.
	PricingCatalog PricingMode = "catalog"
	// PricingClient respeta el precio unitario enviado por el cliente.
	PricingClient PricingMode = "client"
)

// MsgOrderRegistered mensaje de éxito del checkout.
const MsgOrderRegistered = "Orden registrada con éxito"

// CheckoutUseCase convierte el carrito del cliente autenticado en un pedido.
type CheckoutUseCase struct {
	orders      *Service
	productRepo repository.ProductRepository
	idem        IdempotencyStore
	log         *logger.Logger
	pricing     PricingMode
}

// NewCheckoutUseCase construye el caso de uso. idem nil deshabilita la idempotencia.
func NewCheckoutUseCase(
	orders *Service,
	productRepo repository.ProductRepository,
	idem IdempotencyStore,
	log *logger.Logger,
	pricing PricingMode,
) *CheckoutUseCase {
	if idem == nil {
		idem = NoopIdempotency{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if pricing != PricingClient {
		pricing = PricingCatalog
	}
	return &CheckoutUseCase{
		orders:      orders,
		productRepo: productRepo,
		idem:        idem,
		log:         log.Named("checkout"),
		pricing:     pricing,
	}
}

// Checkout registra el pedido del usuario. El total siempre es subtotal + envío; si el
// cliente manda un total distinto es un error de validación. Cualquier falla de
// persistencia se informa como domain.ErrOrderRegistrationFailed sin detalles internos.
//
// Con idemKey la clave se reserva antes de la transacción: un segundo envío concurrente
// recibe domain.ErrCheckoutInProgress, uno posterior el pedido ya creado, y uno con otro
// carrito domain.ErrIdempotencyKeyReused.
func (uc *CheckoutUseCase) Checkout(ctx context.Context, userID, idemKey string, in dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	// ── 1. Identidad ──────────────────────────────────────────────────────────
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	// ── 2. Reserva de la clave ────────────────────────────────────────────────
	reserved := false
	fingerprint := ""
	if idemKey != "" {
		fingerprint = Fingerprint(in)
		resp, ok, err := uc.reserve(ctx, userID, idemKey, fingerprint)
		if err != nil || resp != nil {
			return resp, err
		}
		reserved = ok
	}

	// ── 3. Registro ───────────────────────────────────────────────────────────
	o, err := uc.register(ctx, userID, in)
	if err != nil {
		if reserved {
			uc.release(ctx, userID, idemKey)
		}
		return nil, err
	}

	// ── 4. Cerrar la reserva ──────────────────────────────────────────────────
	if reserved {
		if err := uc.idem.Complete(context.WithoutCancel(ctx), userID, idemKey, fingerprint, o.ID); err != nil {
			uc.log.Warn().Err(err).Str("order_id", o.ID).Msg("no se pudo guardar la clave de idempotencia")
		}
	}

	return &dto.CheckoutResponse{
		OrderID:      o.ID,
		Status:       string(o.Status),
		StatusLabel:  order.Label(o.Status),
		ShippingCost: o.ShippingCost,
		Total:        o.Total,
		Message:      MsgOrderRegistered,
	}, nil
}

// register arma las líneas, verifica el total y persiste el pedido.
func (uc *CheckoutUseCase) register(ctx context.Context, userID string, in dto.CheckoutRequest) (*entity.Order, error) {
	lines, err := uc.buildLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	shipping := uc.orders.ShippingCost()
	total := order.Total(lines, shipping)
	if in.Total != nil && !order.SameAmount(*in.Total, total) {
		return nil, domain.NewValidationError("total", "no coincide con subtotal + envío (esperado %s)", total.StringFixed(2))
	}

	o, err := uc.orders.CreateOrder(ctx, userID, lines, total)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrder) {
			return nil, err
		}
		return nil, domain.ErrOrderRegistrationFailed
	}
	return o, nil
}

// reserve toma la clave. Devuelve una respuesta cuando la clave ya tenía pedido, un error
// si está en curso o se usó con otro carrito, y reserved=false si el store no responde
// (el checkout sigue sin idempotencia).
func (uc *CheckoutUseCase) reserve(ctx context.Context, userID, key, fingerprint string) (*dto.CheckoutResponse, bool, error) {
	rec, reserved, err := uc.idem.Reserve(ctx, userID, key, fingerprint)
	if err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("reserva de idempotencia falló; se procesa sin clave")
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}
	if rec.Fingerprint != fingerprint {
		return nil, false, domain.ErrIdempotencyKeyReused
	}
	if rec.OrderID == "" {
		return nil, false, domain.ErrCheckoutInProgress
	}
	return uc.replay(ctx, userID, rec.OrderID), false, nil
}

// replay arma la respuesta del pedido ya registrado con la clave.
func (uc *CheckoutUseCase) replay(ctx context.Context, userID, orderID string) *dto.CheckoutResponse {
	resp := &dto.CheckoutResponse{OrderID: orderID, Idempotent: true, Message: MsgOrderRegistered}
	if o, err := uc.orders.GetOrder(ctx, userID, entity.RoleCustomer, orderID); err == nil {
		resp.Status = string(o.Status)
		resp.StatusLabel = order.Label(o.Status)
		resp.ShippingCost = o.ShippingCost
		resp.Total = o.Total
	}
	return resp
}

func (uc *CheckoutUseCase) release(ctx context.Context, userID, key string) {
	if err := uc.idem.Release(context.WithoutCancel(ctx), userID, key); err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("no se pudo liberar la clave de idempotencia")
	}
}

// Fingerprint resume el carrito (líneas en orden y total declarado) para detectar una
// clave de idempotencia reutilizada con otro contenido.
func Fingerprint(in dto.CheckoutRequest) string {
	h := sha256.New()
	for _, it := range in.Items {
		price := "-"
		if it.UnitPrice != nil {
			price = it.UnitPrice.String()
		}
		fmt.Fprintf(h, "%s|%d|%s\n", it.ProductID, it.Quantity, price)
	}
	if in.Total != nil {
		fmt.Fprintf(h, "total|%s", in.Total.String())
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (uc *CheckoutUseCase) buildLines(ctx context.Context, items []dto.CheckoutItemRequest) ([]order.LineInput, error) {
	lines := make([]order.LineInput, 0, len(items))
	for i, it := range items {
		l := order.LineInput{ProductID: it.ProductID, Quantity: it.Quantity}
		if uc.pricing == PricingClient {
			if it.UnitPrice == nil {
				return nil, domain.NewValidationError(itemField(i, "unit_price"), "es obligatorio")
			}
			l.UnitPrice = *it.UnitPrice
		}
		lines = append(lines, l)
	}
	if err := order.ValidateLines(lines); err != nil {
		return nil, err
	}
	if uc.pricing == PricingClient {
		return lines, nil
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := uc.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		uc.log.Error().Err(err).Msg("leer precios del catálogo")
		return nil, domain.ErrOrderRegistrationFailed
	}
	prices := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	for i := range lines {
		price, ok := prices[lines[i].ProductID]
		if !ok {
			return nil, domain.NewValidationError(itemField(i, "product_id"), "el producto %s no existe", lines[i].ProductID)
		}
		lines[i].UnitPrice = price
	}
	return lines, nil
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}
