package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ticketd/internal/domain"
	"ticketd/internal/storage"
)

// TierStore implements storage.TierStore using PostgreSQL.
type TierStore struct {
	pool *Pool
}

// NewTierStore creates a new TierStore.
func NewTierStore(pool *Pool) *TierStore {
	return &TierStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TierStore = (*TierStore)(nil)

// Insert adds a new tier. Returns ErrDuplicateKey if the symbol exists.
func (s *TierStore) Insert(ctx context.Context, t *domain.Tier) error {
	if t == nil || t.Symbol == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tiers (
			symbol, name, base_price, current_price, max_supply, minted, active, strategy
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Symbol,
		t.Name,
		t.BasePrice,
		t.CurrentPrice,
		int64(t.MaxSupply),
		int64(t.Minted),
		t.Active,
		string(t.Strategy),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert tier: %w", err)
	}
	return nil
}

// GetBySymbol retrieves a tier. Returns ErrNotFound if not exists.
func (s *TierStore) GetBySymbol(ctx context.Context, symbol string) (*domain.Tier, error) {
	query := `
		SELECT symbol, name, base_price, current_price, max_supply, minted, active, strategy
		FROM tiers
		WHERE symbol = $1
	`

	row := s.pool.QueryRow(ctx, query, symbol)
	t, err := scanTier(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get tier by symbol: %w", err)
	}
	return t, nil
}

// Update replaces an existing tier. Returns ErrNotFound if not exists.
func (s *TierStore) Update(ctx context.Context, t *domain.Tier) error {
	if t == nil || t.Symbol == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE tiers
		SET name = $2, base_price = $3, current_price = $4, max_supply = $5,
		    minted = $6, active = $7, strategy = $8
		WHERE symbol = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		t.Symbol,
		t.Name,
		t.BasePrice,
		t.CurrentPrice,
		int64(t.MaxSupply),
		int64(t.Minted),
		t.Active,
		string(t.Strategy),
	)
	if err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List retrieves all tiers, ordered by symbol ASC.
func (s *TierStore) List(ctx context.Context) ([]*domain.Tier, error) {
	query := `
		SELECT symbol, name, base_price, current_price, max_supply, minted, active, strategy
		FROM tiers
		ORDER BY symbol ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var result []*domain.Tier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tiers: %w", err)
	}
	return result, nil
}

// scanTier scans a tier from a row.
func scanTier(row pgx.Row) (*domain.Tier, error) {
	var t domain.Tier
	var maxSupply, minted int64
	var strategy string

	err := row.Scan(
		&t.Symbol,
		&t.Name,
		&t.BasePrice,
		&t.CurrentPrice,
		&maxSupply,
		&minted,
		&t.Active,
		&strategy,
	)
	if err != nil {
		return nil, err
	}

	t.MaxSupply = uint32(maxSupply)
	t.Minted = uint32(minted)
	t.Strategy = domain.PricingStrategy(strategy)
	return &t, nil
}
