package memory

import (
	"context"
	"sort"
	"sync"

	"ticketd/internal/domain"
	"ticketd/internal/storage"
)

// TicketStore is an in-memory implementation of storage.TicketStore.
type TicketStore struct {
	mu   sync.RWMutex
	data map[uint64]*domain.Ticket // keyed by token id
}

// NewTicketStore creates a new in-memory ticket store.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		data: make(map[uint64]*domain.Ticket),
	}
}

// Insert adds a new ticket. Returns ErrDuplicateKey if the token id exists.
func (s *TicketStore) Insert(_ context.Context, tk *domain.Ticket) error {
	if tk == nil || tk.TokenID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tk.TokenID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	ticketCopy := *tk
	s.data[tk.TokenID] = &ticketCopy
	return nil
}

// GetByTokenID retrieves a ticket. Returns ErrNotFound if not exists.
func (s *TicketStore) GetByTokenID(_ context.Context, tokenID uint64) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tk, exists := s.data[tokenID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	ticketCopy := *tk
	return &ticketCopy, nil
}

// Update replaces an existing ticket. Returns ErrNotFound if not exists.
func (s *TicketStore) Update(_ context.Context, tk *domain.Ticket) error {
	if tk == nil || tk.TokenID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tk.TokenID]; !exists {
		return storage.ErrNotFound
	}

	ticketCopy := *tk
	s.data[tk.TokenID] = &ticketCopy
	return nil
}

// ListByTier retrieves all tickets for a tier, ordered by token id ASC.
func (s *TicketStore) ListByTier(_ context.Context, symbol string) ([]*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Ticket
	for _, tk := range s.data {
		if tk.TierSymbol == symbol {
			ticketCopy := *tk
			result = append(result, &ticketCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TokenID < result[j].TokenID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.TicketStore = (*TicketStore)(nil)
