package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ticketd/internal/domain"
	"ticketd/internal/storage"
)

// TicketStore implements storage.TicketStore using PostgreSQL.
type TicketStore struct {
	pool *Pool
}

// NewTicketStore creates a new TicketStore.
func NewTicketStore(pool *Pool) *TicketStore {
	return &TicketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TicketStore = (*TicketStore)(nil)

// Insert adds a new ticket. Returns ErrDuplicateKey if the token id exists.
func (s *TicketStore) Insert(ctx context.Context, tk *domain.Ticket) error {
	if tk == nil || tk.TokenID == 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tickets (
			token_id, tier_symbol, purchase_time, price_paid, is_valid
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		int64(tk.TokenID),
		tk.TierSymbol,
		tk.PurchaseTime,
		tk.PricePaid,
		tk.IsValid,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// GetByTokenID retrieves a ticket. Returns ErrNotFound if not exists.
func (s *TicketStore) GetByTokenID(ctx context.Context, tokenID uint64) (*domain.Ticket, error) {
	query := `
		SELECT token_id, tier_symbol, purchase_time, price_paid, is_valid
		FROM tickets
		WHERE token_id = $1
	`

	row := s.pool.QueryRow(ctx, query, int64(tokenID))
	tk, err := scanTicket(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ticket by token id: %w", err)
	}
	return tk, nil
}

// Update replaces an existing ticket. Returns ErrNotFound if not exists.
func (s *TicketStore) Update(ctx context.Context, tk *domain.Ticket) error {
	if tk == nil || tk.TokenID == 0 {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE tickets
		SET tier_symbol = $2, purchase_time = $3, price_paid = $4, is_valid = $5
		WHERE token_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		int64(tk.TokenID),
		tk.TierSymbol,
		tk.PurchaseTime,
		tk.PricePaid,
		tk.IsValid,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListByTier retrieves all tickets for a tier, ordered by token id ASC.
func (s *TicketStore) ListByTier(ctx context.Context, symbol string) ([]*domain.Ticket, error) {
	query := `
		SELECT token_id, tier_symbol, purchase_time, price_paid, is_valid
		FROM tickets
		WHERE tier_symbol = $1
		ORDER BY token_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("list tickets by tier: %w", err)
	}
	defer rows.Close()

	var result []*domain.Ticket
	for rows.Next() {
		tk, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		result = append(result, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return result, nil
}

// scanTicket scans a ticket from a row.
func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var tk domain.Ticket
	var tokenID int64

	err := row.Scan(
		&tokenID,
		&tk.TierSymbol,
		&tk.PurchaseTime,
		&tk.PricePaid,
		&tk.IsValid,
	)
	if err != nil {
		return nil, err
	}

	tk.TokenID = uint64(tokenID)
	return &tk, nil
}
