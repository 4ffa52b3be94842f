package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)
	FindBySessionToken(ctx context.Context, token string) (*Cart, error)
	// Save replaces the cart and its lines
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteStale removes carts not updated since before, returning how many went
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
