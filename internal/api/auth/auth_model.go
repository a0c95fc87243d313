package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a stored account. The password hash never leaves the process:
// it is excluded from JSON and only compared through bcrypt.
type User struct {
	ID        string `json:"id" firestore:"-"`
	Name      string `json:"name" firestore:"name"`
	Email     string `json:"email" firestore:"email"`
	Password  string `json:"-" firestore:"password"`
	Role      string `json:"role" firestore:"role"`
	CreatedAt string `json:"createdAt" firestore:"createdAt"`
}

// Claims is the access token payload: {id, email, role, name} plus the
// registered claims. Expiry is fixed at the configured TTL (one hour).
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// RegisterRequest represents the expected JSON body for user registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}

// LoginRequest represents the expected JSON body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login: the sanitized user plus
// a bearer token.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
