package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdempotencyStore maps a client-supplied request key to the resource it
// produced, so a retried create returns the first result instead of
// repeating the side effects.
type IdempotencyStore interface {
	// Claim reserves key for the caller. When the key is already taken,
	// claimed is false and resourceID holds the completed result, or
	// uuid.Nil when the first request is still in flight.
	Claim(ctx context.Context, key string, ttl time.Duration) (claimed bool, resourceID uuid.UUID, err error)

	// Complete records the resource produced for a claimed key
	Complete(ctx context.Context, key string, resourceID uuid.UUID, ttl time.Duration) error

	// Release drops a claim after a failed request so the key can be retried
	Release(ctx context.Context, key string) error
}
