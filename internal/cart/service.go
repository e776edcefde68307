package cart

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/domain"
)

// ErrInvalidSize indicates a size label the reconciler refuses to store,
// such as a purely numeric string.
var ErrInvalidSize = errors.New("invalid size label")

// Store is the persistence surface the cart service needs. The store hands
// back raw, untrusted cart blobs; the service sanitizes on every read so
// the rest of the system only ever sees reconciled data.
type Store interface {
	GetCart(ctx context.Context, userID string) (domain.RawCart, error)
	SaveCart(ctx context.Context, userID string, cart domain.CartData) error
	ClearCart(ctx context.Context, userID string) error
}

// Service owns cart mutations. Every operation round-trips through the
// store and returns the authoritative reconciled snapshot, so the last
// response always wins for display purposes.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Snapshot fetches and reconciles the user's cart.
func (s *Service) Snapshot(ctx context.Context, userID string) (domain.CartData, error) {
	raw, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart: fetching cart for user %s: %w", userID, err)
	}
	return Sanitize(raw), nil
}

// AddItem increments the quantity for a (product, size) pair. A blank size
// lands in the Default bucket and quantities below one are floored to one.
// Numeric size labels are rejected.
func (s *Service) AddItem(ctx context.Context, userID, productID, size string, quantity int) (domain.CartData, error) {
	normalizedSize, ok := NormalizeSize(size)
	if !ok {
		return nil, fmt.Errorf("cart: %w: %q", ErrInvalidSize, size)
	}
	if quantity < 1 {
		quantity = 1
	}

	cart, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart[productID] == nil {
		cart[productID] = make(map[string]int)
	}
	cart[productID][normalizedSize] += quantity

	if err := s.store.SaveCart(ctx, userID, cart); err != nil {
		return nil, fmt.Errorf("cart: saving cart for user %s: %w", userID, err)
	}
	return cart, nil
}

// UpdateItem sets the quantity for a (product, size) pair. A quantity of
// zero or less removes the entry, and the product row disappears with its
// last size.
func (s *Service) UpdateItem(ctx context.Context, userID, productID, size string, quantity int) (domain.CartData, error) {
	normalizedSize, ok := NormalizeSize(size)
	if !ok {
		return nil, fmt.Errorf("cart: %w: %q", ErrInvalidSize, size)
	}

	cart, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if sizes, found := cart[productID]; found {
			delete(sizes, normalizedSize)
			if len(sizes) == 0 {
				delete(cart, productID)
			}
		}
	} else {
		if cart[productID] == nil {
			cart[productID] = make(map[string]int)
		}
		cart[productID][normalizedSize] = quantity
	}

	if err := s.store.SaveCart(ctx, userID, cart); err != nil {
		return nil, fmt.Errorf("cart: saving cart for user %s: %w", userID, err)
	}
	return cart, nil
}

// Clear empties the user's server-side cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.store.ClearCart(ctx, userID); err != nil {
		return fmt.Errorf("cart: clearing cart for user %s: %w", userID, err)
	}
	return nil
}
