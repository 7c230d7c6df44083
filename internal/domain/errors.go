package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInUse              = errors.New("el recurso está referenciado por pedidos")

	// Pedidos
	ErrInvalidOrder            = errors.New("pedido inválido")
	ErrOrderCreationFailed     = errors.New("no se pudo crear el pedido")
	ErrOrderRegistrationFailed = errors.New("error al registrar la orden")
	ErrUnknownStatus           = errors.New("estado no válido")
	ErrInvalidTransition       = errors.New("transición de estado no permitida")

	// Idempotencia del checkout
	ErrCheckoutInProgress   = errors.New("ya hay un checkout en curso con esta clave")
	ErrIdempotencyKeyReused = errors.New("la clave de idempotencia ya se usó con otro carrito")
)

// ValidationError describe una entrada rechazada antes de tocar el almacenamiento.
// errors.Is(err, ErrInvalidOrder) es verdadero.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidOrder }

// NewValidationError atajo para construir un *ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UnknownStatusError valor de estado fuera del vocabulario conocido.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("estado no válido: %q", e.Status)
}

func (e *UnknownStatusError) Unwrap() error { return ErrUnknownStatus }

// InvalidTransitionError movimiento no permitido por la máquina de estados del pedido.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("no se puede pasar de %q a %q", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
