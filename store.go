package authclient

import "context"

// Storage keys for the persisted session projection. The pending pair is
// written and cleared together, never one without the other.
const (
	KeyAccessToken           = "access-token"
	KeyUser                  = "user"
	KeyPendingEmail          = "pending-email"
	KeyPendingIsRegistration = "pending-is-registration"

	// KeyDeviceID is not part of the session projection and survives SignOut.
	KeyDeviceID = "device-id"
)

// SessionStore is the durable key-value surface the session is projected
// onto. Get reports absence through the bool, not through the error: an
// error means the underlying medium failed. Implementations must be safe
// for concurrent use.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
