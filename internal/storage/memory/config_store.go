package memory

import (
	"context"
	"sync"

	"ticketd/internal/domain"
	"ticketd/internal/storage"
)

// ConfigStore is an in-memory implementation of storage.ConfigStore.
type ConfigStore struct {
	mu           sync.RWMutex
	initialized  bool
	admin        domain.Address
	pendingOwner domain.Address
	hasPending   bool
	eventInfo    domain.EventInfo
	pricing      domain.PricingConfig
}

// NewConfigStore creates a new in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{}
}

// Initialize creates the instance records exactly once.
func (s *ConfigStore) Initialize(_ context.Context, admin domain.Address, info domain.EventInfo, cfg domain.PricingConfig) error {
	if admin.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return storage.ErrDuplicateKey
	}

	s.initialized = true
	s.admin = admin
	s.eventInfo = info
	s.pricing = cfg
	return nil
}

// Initialized reports whether Initialize has been called.
func (s *ConfigStore) Initialized(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized, nil
}

// GetAdmin retrieves the admin identity.
func (s *ConfigStore) GetAdmin(_ context.Context) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return "", storage.ErrNotFound
	}
	return s.admin, nil
}

// SetAdmin replaces the admin identity.
func (s *ConfigStore) SetAdmin(_ context.Context, admin domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return storage.ErrNotFound
	}
	s.admin = admin
	return nil
}

// GetPendingOwner retrieves the pending ownership-transfer target.
func (s *ConfigStore) GetPendingOwner(_ context.Context) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasPending {
		return "", storage.ErrNotFound
	}
	return s.pendingOwner, nil
}

// SetPendingOwner records an ownership-transfer target.
func (s *ConfigStore) SetPendingOwner(_ context.Context, owner domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return storage.ErrNotFound
	}
	s.pendingOwner = owner
	s.hasPending = true
	return nil
}

// ClearPendingOwner removes any pending ownership-transfer target.
func (s *ConfigStore) ClearPendingOwner(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingOwner = ""
	s.hasPending = false
	return nil
}

// GetEventInfo retrieves the event timing.
func (s *ConfigStore) GetEventInfo(_ context.Context) (*domain.EventInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, storage.ErrNotFound
	}
	infoCopy := s.eventInfo
	return &infoCopy, nil
}

// GetPricingConfig retrieves the pricing configuration.
func (s *ConfigStore) GetPricingConfig(_ context.Context) (*domain.PricingConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, storage.ErrNotFound
	}
	cfgCopy := s.pricing
	return &cfgCopy, nil
}

// SetPricingConfig replaces the pricing configuration.
func (s *ConfigStore) SetPricingConfig(_ context.Context, cfg *domain.PricingConfig) error {
	if cfg == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return storage.ErrNotFound
	}
	s.pricing = *cfg
	return nil
}

// Verify interface compliance at compile time.
var _ storage.ConfigStore = (*ConfigStore)(nil)
