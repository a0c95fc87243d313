package api

import "errors"

// Sentinel errors shared by every feature package. Services translate store
// outcomes into these; handlers map them onto HTTP status codes at the
// boundary and never inspect raw store errors.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
)

// Response is the generic success/error envelope for simple endpoints.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
