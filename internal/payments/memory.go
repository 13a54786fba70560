package payments

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"ticketd/internal/domain"
)

// Transfer is one completed movement of funds.
type Transfer struct {
	Reference string
	From      domain.Address
	To        domain.Address
	Amount    int64
}

// MemoryTransferer is an in-memory Transferer keeping account balances
// and a log of completed transfers. Safe for concurrent use.
type MemoryTransferer struct {
	mu        sync.RWMutex
	balances  map[domain.Address]int64
	transfers []Transfer
}

// NewMemoryTransferer creates a transferer with all balances at zero.
func NewMemoryTransferer() *MemoryTransferer {
	return &MemoryTransferer{
		balances: make(map[domain.Address]int64),
	}
}

// Credit adds funds to an account. Test and bootstrap helper.
func (m *MemoryTransferer) Credit(addr domain.Address, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[addr] += amount
}

// Balance returns the current balance of an account.
func (m *MemoryTransferer) Balance(addr domain.Address) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.balances[addr]
}

// Transfers returns a copy of the completed-transfer log.
func (m *MemoryTransferer) Transfers() []Transfer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Transfer, len(m.transfers))
	copy(out, m.transfers)
	return out
}

// Transfer moves amount between accounts. Fails with
// ErrInsufficientFunds without touching either balance when the source
// cannot cover it.
func (m *MemoryTransferer) Transfer(_ context.Context, from, to domain.Address, amount int64) (string, error) {
	if amount < 0 {
		return "", ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.balances[from] < amount {
		return "", ErrInsufficientFunds
	}

	m.balances[from] -= amount
	m.balances[to] += amount

	ref := uuid.NewString()
	m.transfers = append(m.transfers, Transfer{
		Reference: ref,
		From:      from,
		To:        to,
		Amount:    amount,
	})
	return ref, nil
}

// Compile-time interface check.
var _ Transferer = (*MemoryTransferer)(nil)
