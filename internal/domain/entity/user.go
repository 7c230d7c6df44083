package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User representa un cliente o administrador de la tienda.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt, nunca la contraseña plana
	Role         string // admin, customer
	Phone        string
	Address      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin indica si el usuario tiene rol administrador.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
