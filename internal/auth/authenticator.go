package auth

import "github.com/mmynk/dinevote/internal/models"

// Authenticator turns a bearer credential into a caller identity.
// This abstraction allows swapping token formats or identity providers
// without changing the interceptors or the planning engine.
type Authenticator interface {
	// Authenticate verifies the credential and returns who it belongs to.
	// Returns an error wrapping ErrInvalidToken if it cannot be trusted.
	Authenticate(credential string) (models.Identity, error)
}
