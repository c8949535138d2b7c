package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

// Store is the single source of truth for what the user is about to buy.
// It is anonymous, browser-local style state: durable across restarts via
// the backing storage, never tied to a signed-in identity.
//
// The derived total is recomputed synchronously on every mutation; it is
// never stored authoritatively. Mutations always succeed from the caller's
// point of view: persistence failures are logged and absorbed so a broken
// state directory cannot block browsing or checkout.
type Store struct {
	mu      sync.Mutex
	items   []Item
	total   decimal.Decimal
	backing storage.Store
	logger  *logger.Logger
}

// NewStore loads any persisted cart from the backing storage. A malformed
// persisted value is logged and treated as an empty cart.
func NewStore(ctx context.Context, backing storage.Store, logg *logger.Logger) *Store {
	s := &Store{
		backing: backing,
		logger:  logg,
		total:   decimal.Zero,
	}

	var items []Item
	if storage.DecodeJSON(ctx, backing, storage.KeyCart, &items, logg) {
		s.items = items
		s.total = sumPrices(items)
	}
	return s
}

// Add inserts the item, or replaces the entry with the same (id, type) key
// in place.
func (s *Store) Add(ctx context.Context, item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.items {
		if s.items[i].sameKey(item.ID, item.Type) {
			s.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		s.items = append(s.items, item)
	}
	s.afterMutation(ctx)
}

// Remove drops the matching entry. Removing an absent item is a no-op.
func (s *Store) Remove(ctx context.Context, id string, itemType ItemType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].sameKey(id, itemType) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.afterMutation(ctx)
			return
		}
	}
}

// Clear empties the cart and removes the persisted entry outright, so an
// emptied cart and a never-created cart look the same in storage.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.total = decimal.Zero
	if err := s.backing.Delete(ctx, storage.KeyCart); err != nil && s.logger != nil {
		s.logger.Error(ctx, "removing persisted cart", err)
	}
}

// Items returns a copy of the current entries in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Total is the sum of item prices; zero iff the cart is empty.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Count returns the number of entries.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// afterMutation recomputes the total and persists the item list. Callers
// must hold s.mu.
func (s *Store) afterMutation(ctx context.Context) {
	s.total = sumPrices(s.items)
	if err := storage.EncodeJSON(ctx, s.backing, storage.KeyCart, s.items); err != nil && s.logger != nil {
		s.logger.Error(ctx, "persisting cart", err)
	}
}

func sumPrices(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}
