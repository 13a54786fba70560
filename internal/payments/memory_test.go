package payments

import (
	"context"
	"errors"
	"testing"

	"ticketd/internal/domain"
)

func TestMemoryTransferer_Transfer(t *testing.T) {
	m := NewMemoryTransferer()
	buyer := domain.Address("buyer")
	seller := domain.Address("seller")
	m.Credit(buyer, 1000_00000000)

	ref, err := m.Transfer(context.Background(), buyer, seller, 300_00000000)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if ref == "" {
		t.Error("expected a non-empty transfer reference")
	}

	if got := m.Balance(buyer); got != 700_00000000 {
		t.Errorf("buyer balance: got %d, want 70000000000", got)
	}
	if got := m.Balance(seller); got != 300_00000000 {
		t.Errorf("seller balance: got %d, want 30000000000", got)
	}

	log := m.Transfers()
	if len(log) != 1 {
		t.Fatalf("transfer log: got %d entries, want 1", len(log))
	}
	if log[0].Reference != ref || log[0].From != buyer || log[0].To != seller || log[0].Amount != 300_00000000 {
		t.Errorf("transfer log entry: got %+v", log[0])
	}
}

func TestMemoryTransferer_InsufficientFunds(t *testing.T) {
	m := NewMemoryTransferer()
	buyer := domain.Address("buyer")
	seller := domain.Address("seller")
	m.Credit(buyer, 100)

	_, err := m.Transfer(context.Background(), buyer, seller, 101)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}

	// Atomic failure: no funds moved.
	if got := m.Balance(buyer); got != 100 {
		t.Errorf("buyer balance after failure: got %d, want 100", got)
	}
	if got := m.Balance(seller); got != 0 {
		t.Errorf("seller balance after failure: got %d, want 0", got)
	}
	if got := len(m.Transfers()); got != 0 {
		t.Errorf("transfer log after failure: got %d entries, want 0", got)
	}
}

func TestMemoryTransferer_ZeroAmount(t *testing.T) {
	m := NewMemoryTransferer()
	a := domain.Address("a")
	b := domain.Address("b")

	ref, err := m.Transfer(context.Background(), a, b, 0)
	if err != nil {
		t.Fatalf("zero-amount transfer: %v", err)
	}
	if ref == "" {
		t.Error("expected a reference for zero-amount transfer")
	}
}

func TestMemoryTransferer_NegativeAmount(t *testing.T) {
	m := NewMemoryTransferer()

	_, err := m.Transfer(context.Background(), domain.Address("a"), domain.Address("b"), -1)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
}

func TestMemoryTransferer_UniqueReferences(t *testing.T) {
	m := NewMemoryTransferer()
	a := domain.Address("a")
	b := domain.Address("b")
	m.Credit(a, 10)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		ref, err := m.Transfer(context.Background(), a, b, 1)
		if err != nil {
			t.Fatalf("Transfer: %v", err)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %s", ref)
		}
		seen[ref] = true
	}
}
