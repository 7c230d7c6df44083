package order

import (
	"strings"

	"github.com/vittoswine/vittos-api/internal/domain"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

// validNext tabla de transiciones permitidas. Los estados sin entrada son terminales.
var validNext = map[entity.OrderStatus]map[entity.OrderStatus]bool{
	entity.OrderStatusPending: {
		entity.OrderStatusProcessing: true,
		entity.OrderStatusCancelled:  true,
	},
	entity.OrderStatusProcessing: {
		entity.OrderStatusShipped:   true,
		entity.OrderStatusCancelled: true,
	},
	entity.OrderStatusShipped: {
		entity.OrderStatusDelivered: true,
	},
}

// etiquetas en español mostradas al cliente; también se aceptan como entrada
var labels = map[entity.OrderStatus]string{
	entity.OrderStatusPending:    "pendiente",
	entity.OrderStatusProcessing: "procesando",
	entity.OrderStatusShipped:    "enviado",
	entity.OrderStatusDelivered:  "entregado",
	entity.OrderStatusCancelled:  "cancelado",
}

var aliases = func() map[string]entity.OrderStatus {
	m := make(map[string]entity.OrderStatus, len(labels)*2+1)
	for st, label := range labels {
		m[string(st)] = st
		m[label] = st
	}
	m["canceled"] = entity.OrderStatusCancelled
	return m
}()

// Statuses lista de estados canónicos en orden de ciclo de vida.
func Statuses() []entity.OrderStatus {
	return []entity.OrderStatus{
		entity.OrderStatusPending,
		entity.OrderStatusProcessing,
		entity.OrderStatusShipped,
		entity.OrderStatusDelivered,
		entity.OrderStatusCancelled,
	}
}

// ParseStatus normaliza un valor externo (canónico o etiqueta en español, sin distinguir mayúsculas).
// Devuelve *domain.UnknownStatusError si no pertenece al vocabulario.
func ParseStatus(raw string) (entity.OrderStatus, error) {
	st, ok := aliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", &domain.UnknownStatusError{Status: raw}
	}
	return st, nil
}

// IsKnown indica si el valor es un estado canónico.
func IsKnown(s entity.OrderStatus) bool {
	_, ok := labels[s]
	return ok
}

// CanTransition indica si se permite pasar de from a to. Mantener el mismo estado no es una transición.
func CanTransition(from, to entity.OrderStatus) bool {
	return validNext[from][to]
}

// Transition valida el movimiento y devuelve *domain.InvalidTransitionError si no está permitido.
func Transition(from, to entity.OrderStatus) error {
	if !CanTransition(from, to) {
		return &domain.InvalidTransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// IsTerminal true para delivered y cancelled.
func IsTerminal(s entity.OrderStatus) bool {
	return IsKnown(s) && len(validNext[s]) == 0
}

// Label etiqueta en español; para valores desconocidos devuelve el valor tal cual.
func Label(s entity.OrderStatus) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}
