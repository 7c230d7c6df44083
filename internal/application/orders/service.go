// Package orders contiene los casos de uso de pedidos: creación atómica, lecturas agregadas,
// cambios de estado, checkout y documentos del pedido.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vittoswine/vittos-api/internal/domain"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/order"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
	"github.com/vittoswine/vittos-api/pkg/logger"
)

const publishTimeout = 3 * time.Second

// Service reglas de negocio sobre pedidos persistidos.
type Service struct {
	txRunner  OrderTxRunner
	orderRepo repository.OrderRepository
	events    EventPublisher
	log       *logger.Logger
	shipping  decimal.Decimal
	now       func() time.Time
}

// NewService construye el servicio. events o log nil usan implementaciones que no hacen nada.
func NewService(
	txRunner OrderTxRunner,
	orderRepo repository.OrderRepository,
	events EventPublisher,
	log *logger.Logger,
	shipping decimal.Decimal,
) *Service {
	if events == nil {
		events = NoopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		txRunner:  txRunner,
		orderRepo: orderRepo,
		events:    events,
		log:       log.Named("orders"),
		shipping:  shipping,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ShippingCost costo de envío vigente.
func (s *Service) ShippingCost() decimal.Decimal { return s.shipping }

// CreateOrder valida y persiste cabecera y líneas en una sola transacción.
// Errores de validación se devuelven tal cual (envuelven domain.ErrInvalidOrder);
// cualquier falla de persistencia envuelve domain.ErrOrderCreationFailed y no deja filas.
func (s *Service) CreateOrder(ctx context.Context, userID string, lines []order.LineInput, total decimal.Decimal) (*entity.Order, error) {
	o, err := order.New(userID, lines, s.shipping, total, s.now())
	if err != nil {
		return nil, err
	}

	err = s.txRunner.RunOrders(ctx, func(orderRepo repository.OrderRepository, _ repository.ProductRepository) error {
		if err := orderRepo.Create(ctx, o); err != nil {
			return err
		}
		for i := range o.Items {
			if err := orderRepo.CreateItem(ctx, &o.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).
			Str("order_id", o.ID).
			Str("user_id", userID).
			Int("items", len(o.Items)).
			Str("total", o.Total.StringFixed(2)).
			Msg("no se pudo persistir el pedido")
		return nil, fmt.Errorf("%w: %w", domain.ErrOrderCreationFailed, err)
	}

	s.log.Info().Str("order_id", o.ID).Str("user_id", userID).Str("total", o.Total.StringFixed(2)).Msg("pedido creado")
	s.publish(ctx, OrderEvent{
		Type:       EventOrderCreated,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.Total,
		OccurredAt: o.CreatedAt,
	})
	return o, nil
}

// ListOrdersForUser pedidos del usuario autenticado, más recientes primero.
func (s *Service) ListOrdersForUser(ctx context.Context, userID string) ([]*entity.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	list, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("listar pedidos del usuario")
		return nil, err
	}
	return list, nil
}

// ListAllOrders todos los pedidos con datos del cliente (vista admin).
func (s *Service) ListAllOrders(ctx context.Context) ([]*entity.Order, error) {
	list, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listar pedidos")
		return nil, err
	}
	return list, nil
}

// GetOrder detalle de un pedido. Sólo el dueño o un admin pueden verlo.
func (s *Service) GetOrder(ctx context.Context, requesterID, requesterRole, orderID string) (*entity.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if requesterRole != entity.RoleAdmin && o.UserID != requesterID {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// UpdateOrderStatus aplica la máquina de estados y persiste con compare-and-set.
//
//  1. El valor se normaliza antes de tocar el almacenamiento (UnknownStatusError).
//  2. Se lee el estado actual (ErrNotFound si no existe).
//  3. Se valida la transición (InvalidTransitionError).
//  4. El UPDATE sólo aplica si el estado no cambió entre medio; si cambió, ErrConflict.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID, rawStatus string) (*entity.Order, error) {
	to, err := order.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	current, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}

	if err := order.Transition(current.Status, to); err != nil {
		return nil, err
	}

	ok, err := s.orderRepo.UpdateStatus(ctx, orderID, current.Status, to)
	if err != nil {
		s.log.Error().Err(err).Str("order_id", orderID).Str("to", string(to)).Msg("actualizar estado del pedido")
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: el pedido cambió de estado durante la actualización", domain.ErrConflict)
	}

	from := current.Status
	current.Status = to
	current.UpdatedAt = s.now()

	s.log.Info().Str("order_id", orderID).Str("from", string(from)).Str("to", string(to)).Msg("estado de pedido actualizado")
	s.publish(ctx, OrderEvent{
		Type:           EventOrderStatusChanged,
		OrderID:        current.ID,
		UserID:         current.UserID,
		Status:         to,
		PreviousStatus: from,
		Total:          current.Total,
		OccurredAt:     current.UpdatedAt,
	})
	return current, nil
}

// publish no hace fallar la operación: el commit ya ocurrió.
func (s *Service) publish(ctx context.Context, evt OrderEvent) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, evt); err != nil {
		s.log.Warn().Err(err).Str("event", evt.Type).Str("order_id", evt.OrderID).Msg("no se pudo publicar el evento")
	}
}
