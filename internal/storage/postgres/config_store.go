package postgres

import (
	"context"
	"fmt"

	"ticketd/internal/domain"
	"ticketd/internal/storage"
)

// ConfigStore implements storage.ConfigStore using PostgreSQL. All
// instance records live in the single-row instance table (id = 1).
type ConfigStore struct {
	pool *Pool
}

// NewConfigStore creates a new ConfigStore.
func NewConfigStore(pool *Pool) *ConfigStore {
	return &ConfigStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ConfigStore = (*ConfigStore)(nil)

// Initialize creates the instance row exactly once.
func (s *ConfigStore) Initialize(ctx context.Context, admin domain.Address, info domain.EventInfo, cfg domain.PricingConfig) error {
	if admin.IsZero() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO instance (
			id, admin, pending_owner,
			start_time, refund_cutoff_time,
			oracle_endpoint, dex_endpoint, price_floor, price_ceiling,
			update_frequency, last_update_time, is_frozen,
			oracle_pair, oracle_reference_price, max_oracle_age_seconds
		) VALUES (1, $1, NULL, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		string(admin),
		info.StartTime,
		info.RefundCutoffTime,
		cfg.OracleEndpoint,
		cfg.DexEndpoint,
		cfg.PriceFloor,
		cfg.PriceCeiling,
		cfg.UpdateFrequency,
		cfg.LastUpdateTime,
		cfg.IsFrozen,
		cfg.OraclePair,
		cfg.OracleReferencePrice,
		cfg.MaxOracleAgeSeconds,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("initialize instance: %w", err)
	}
	return nil
}

// Initialized reports whether the instance row exists.
func (s *ConfigStore) Initialized(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM instance WHERE id = 1)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check initialized: %w", err)
	}
	return exists, nil
}

// GetAdmin retrieves the admin identity.
func (s *ConfigStore) GetAdmin(ctx context.Context) (domain.Address, error) {
	var admin string
	err := s.pool.QueryRow(ctx, `SELECT admin FROM instance WHERE id = 1`).Scan(&admin)
	if err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get admin: %w", err)
	}
	return domain.Address(admin), nil
}

// SetAdmin replaces the admin identity.
func (s *ConfigStore) SetAdmin(ctx context.Context, admin domain.Address) error {
	tag, err := s.pool.Exec(ctx, `UPDATE instance SET admin = $1 WHERE id = 1`, string(admin))
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetPendingOwner retrieves the pending ownership-transfer target.
func (s *ConfigStore) GetPendingOwner(ctx context.Context) (domain.Address, error) {
	var pending *string
	err := s.pool.QueryRow(ctx, `SELECT pending_owner FROM instance WHERE id = 1`).Scan(&pending)
	if err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get pending owner: %w", err)
	}
	if pending == nil {
		return "", storage.ErrNotFound
	}
	return domain.Address(*pending), nil
}

// SetPendingOwner records an ownership-transfer target.
func (s *ConfigStore) SetPendingOwner(ctx context.Context, owner domain.Address) error {
	tag, err := s.pool.Exec(ctx, `UPDATE instance SET pending_owner = $1 WHERE id = 1`, string(owner))
	if err != nil {
		return fmt.Errorf("set pending owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ClearPendingOwner removes any pending ownership-transfer target.
func (s *ConfigStore) ClearPendingOwner(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `UPDATE instance SET pending_owner = NULL WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("clear pending owner: %w", err)
	}
	return nil
}

// GetEventInfo retrieves the event timing.
func (s *ConfigStore) GetEventInfo(ctx context.Context) (*domain.EventInfo, error) {
	var info domain.EventInfo
	err := s.pool.QueryRow(ctx,
		`SELECT start_time, refund_cutoff_time FROM instance WHERE id = 1`,
	).Scan(&info.StartTime, &info.RefundCutoffTime)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get event info: %w", err)
	}
	return &info, nil
}

// GetPricingConfig retrieves the pricing configuration.
func (s *ConfigStore) GetPricingConfig(ctx context.Context) (*domain.PricingConfig, error) {
	var cfg domain.PricingConfig
	err := s.pool.QueryRow(ctx, `
		SELECT oracle_endpoint, dex_endpoint, price_floor, price_ceiling,
		       update_frequency, last_update_time, is_frozen,
		       oracle_pair, oracle_reference_price, max_oracle_age_seconds
		FROM instance WHERE id = 1
	`).Scan(
		&cfg.OracleEndpoint,
		&cfg.DexEndpoint,
		&cfg.PriceFloor,
		&cfg.PriceCeiling,
		&cfg.UpdateFrequency,
		&cfg.LastUpdateTime,
		&cfg.IsFrozen,
		&cfg.OraclePair,
		&cfg.OracleReferencePrice,
		&cfg.MaxOracleAgeSeconds,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pricing config: %w", err)
	}
	return &cfg, nil
}

// SetPricingConfig replaces the pricing configuration.
func (s *ConfigStore) SetPricingConfig(ctx context.Context, cfg *domain.PricingConfig) error {
	if cfg == nil {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE instance
		SET oracle_endpoint = $1, dex_endpoint = $2, price_floor = $3,
		    price_ceiling = $4, update_frequency = $5, last_update_time = $6,
		    is_frozen = $7, oracle_pair = $8, oracle_reference_price = $9,
		    max_oracle_age_seconds = $10
		WHERE id = 1
	`

	tag, err := s.pool.Exec(ctx, query,
		cfg.OracleEndpoint,
		cfg.DexEndpoint,
		cfg.PriceFloor,
		cfg.PriceCeiling,
		cfg.UpdateFrequency,
		cfg.LastUpdateTime,
		cfg.IsFrozen,
		cfg.OraclePair,
		cfg.OracleReferencePrice,
		cfg.MaxOracleAgeSeconds,
	)
	if err != nil {
		return fmt.Errorf("set pricing config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
