package memory

import (
	"context"
	"sort"
	"sync"

	"ticketd/internal/domain"
	"ticketd/internal/storage"
)

// TierStore is an in-memory implementation of storage.TierStore.
type TierStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Tier // keyed by symbol
}

// NewTierStore creates a new in-memory tier store.
func NewTierStore() *TierStore {
	return &TierStore{
		data: make(map[string]*domain.Tier),
	}
}

// Insert adds a new tier. Returns ErrDuplicateKey if the symbol exists.
func (s *TierStore) Insert(_ context.Context, t *domain.Tier) error {
	if t == nil || t.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Symbol]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	tierCopy := *t
	s.data[t.Symbol] = &tierCopy
	return nil
}

// GetBySymbol retrieves a tier. Returns ErrNotFound if not exists.
func (s *TierStore) GetBySymbol(_ context.Context, symbol string) (*domain.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	tierCopy := *t
	return &tierCopy, nil
}

// Update replaces an existing tier. Returns ErrNotFound if not exists.
func (s *TierStore) Update(_ context.Context, t *domain.Tier) error {
	if t == nil || t.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Symbol]; !exists {
		return storage.ErrNotFound
	}

	tierCopy := *t
	s.data[t.Symbol] = &tierCopy
	return nil
}

// List retrieves all tiers, ordered by symbol ASC.
func (s *TierStore) List(_ context.Context) ([]*domain.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Tier, 0, len(s.data))
	for _, t := range s.data {
		tierCopy := *t
		result = append(result, &tierCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.TierStore = (*TierStore)(nil)
