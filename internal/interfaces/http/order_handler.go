package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vittoswine/vittos-api/internal/application/dto"
	"github.com/vittoswine/vittos-api/internal/application/orders"
)

// HeaderIdempotencyKey permite reintentar el checkout sin duplicar el pedido.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 200

// OrderHandler checkout, lecturas, cambios de estado y documentos de pedidos.
type OrderHandler struct {
	svc       *orders.Service
	checkout  *orders.CheckoutUseCase
	documents *orders.DocumentsUseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(svc *orders.Service, checkout *orders.CheckoutUseCase, documents *orders.DocumentsUseCase) *OrderHandler {
	return &OrderHandler{svc: svc, checkout: checkout, documents: documents}
}

// Create godoc
// @Summary      Registrar pedido (checkout)
// @Description  Convierte el carrito en un pedido pendiente. Total = subtotal + envío.
// @Description  Con Idempotency-Key repetida devuelve 200 y el pedido ya creado; 409 si ese checkout sigue en curso y 422 si la clave se usó con otro carrito.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string               false  "Clave de idempotencia"
// @Param        body             body    dto.CheckoutRequest  true   "Líneas del carrito y total"
// @Success      201  {object}  dto.CheckoutResponse
// @Success      200  {object}  dto.CheckoutResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: fmt.Sprintf("%s no puede superar %d caracteres", HeaderIdempotencyKey, maxIdempotencyKeyLen),
		})
	}
	out, err := h.checkout.Checkout(c.UserContext(), GetUserID(c), key, in)
	if err != nil {
		return writeError(c, err)
	}
	if out.Idempotent {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Mine godoc
// @Summary      Mis pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.OrderResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/orders/mine [get]
func (h *OrderHandler) Mine(c *fiber.Ctx) error {
	list, err := h.svc.ListOrdersForUser(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders.ToOrderResponses(list))
}

// List godoc
// @Summary      Todos los pedidos (admin)
// @Description  Incluye nombre, email, teléfono y dirección del cliente.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.OrderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	list, err := h.svc.ListAllOrders(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders.ToOrderResponses(list))
}

// GetByID godoc
// @Summary      Detalle de pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.svc.GetOrder(c.UserContext(), GetUserID(c), GetRole(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders.ToOrderResponse(o))
}

// UpdateStatus godoc
// @Summary      Cambiar estado del pedido (admin)
// @Description  Acepta el valor canónico (processing) o la etiqueta (procesando).
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del pedido"
// @Param        body  body  dto.UpdateOrderStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateOrderStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(in.Status) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status es requerido"})
	}
	o, err := h.svc.UpdateOrderStatus(c.UserContext(), c.Params("id"), in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders.ToOrderResponse(o))
}

// Receipt godoc
// @Summary      Comprobante PDF del pedido
// @Tags         orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/receipt [get]
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	doc, name, err := h.documents.DownloadReceipt(c.UserContext(), GetUserID(c), GetRole(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(doc)
}

// DispatchGuide godoc
// @Summary      Guía de despacho XML (admin)
// @Description  Sólo para pedidos procesando, enviados o entregados.
// @Tags         orders
// @Security     Bearer
// @Produce      application/xml
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/dispatch-guide [get]
func (h *OrderHandler) DispatchGuide(c *fiber.Ctx) error {
	doc, name, err := h.documents.DownloadDispatchGuide(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(doc)
}
