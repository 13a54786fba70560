package ledger

import (
	"context"
	"sync"

	"ticketd/internal/domain"
)

// MemoryLedger is an in-memory soulbound TokenLedger. Safe for
// concurrent use.
type MemoryLedger struct {
	mu     sync.RWMutex
	meta   Metadata
	owners map[uint64]domain.Address
	nextID uint64
}

// NewMemoryLedger creates an empty ledger. The first minted token gets
// id 1.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		owners: make(map[uint64]domain.Address),
		nextID: 1,
	}
}

func (l *MemoryLedger) SetMetadata(_ context.Context, meta Metadata) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.meta = meta
	return nil
}

func (l *MemoryLedger) Metadata(_ context.Context) (Metadata, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.meta, nil
}

func (l *MemoryLedger) Mint(_ context.Context, to domain.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.owners[id] = to
	return id, nil
}

func (l *MemoryLedger) Burn(_ context.Context, tokenID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.owners[tokenID]; !ok {
		return ErrTokenNotFound
	}
	delete(l.owners, tokenID)
	return nil
}

func (l *MemoryLedger) OwnerOf(_ context.Context, tokenID uint64) (domain.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	owner, ok := l.owners[tokenID]
	if !ok {
		return "", ErrTokenNotFound
	}
	return owner, nil
}

func (l *MemoryLedger) BalanceOf(_ context.Context, owner domain.Address) (uint32, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var count uint32
	for _, o := range l.owners {
		if o == owner {
			count++
		}
	}
	return count, nil
}

func (l *MemoryLedger) Transfer(_ context.Context, _, _ domain.Address, _ uint64) error {
	return ErrSoulbound
}

func (l *MemoryLedger) TransferFrom(_ context.Context, _, _, _ domain.Address, _ uint64) error {
	return ErrSoulbound
}

func (l *MemoryLedger) Approve(_ context.Context, _, _ domain.Address, _ uint64) error {
	return ErrSoulbound
}

func (l *MemoryLedger) ApproveForAll(_ context.Context, _, _ domain.Address, _ bool) error {
	return ErrSoulbound
}

func (l *MemoryLedger) GetApproved(_ context.Context, tokenID uint64) (domain.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.owners[tokenID]; !ok {
		return "", ErrTokenNotFound
	}
	return "", nil
}

func (l *MemoryLedger) IsApprovedForAll(_ context.Context, _, _ domain.Address) (bool, error) {
	return false, nil
}

// Compile-time interface check.
var _ TokenLedger = (*MemoryLedger)(nil)
