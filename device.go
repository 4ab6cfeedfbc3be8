package authclient

import (
	"context"

	"github.com/google/uuid"
)

// EnsureDeviceID returns the stable installation identifier for this
// device, minting and persisting one on first use. The identifier lives in
// the same store as the session but is not part of the session projection:
// SignOut leaves it alone. Pass the result to NewClient via WithDeviceID.
func EnsureDeviceID(ctx context.Context, store SessionStore, logger Logger) (string, error) {
	if logger == nil {
		logger = defLogger{}
	}

	value, ok, err := store.Get(ctx, KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && value != "" {
		return value, nil
	}

	id := uuid.NewString()
	if err := store.Set(ctx, KeyDeviceID, id); err != nil {
		// Still usable for this process; the next start mints a new one.
		logger.Warn("failed to persist device id: %v", err)
	}

	return id, nil
}
