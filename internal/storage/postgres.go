package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lucasferr-dev/zapagenda/internal/model"
	"github.com/lucasferr-dev/zapagenda/libs/db"
)

// PostgresStore keeps the ledger as one JSONB row keyed by LedgerKey, so the
// key-value persistence contract is the same as the Redis backend's.
type PostgresStore struct {
	pool *db.Pool
	key  string
}

func NewPostgresStore(pool *db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, key: LedgerKey}
}

// EnsureSchema creates the snapshot table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_snapshots (
			key text PRIMARY KEY,
			payload jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]model.Appointment, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM ledger_snapshots WHERE key = $1
	`, s.key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger from postgres: %w", err)
	}
	var appts []model.Appointment
	if err := json.Unmarshal(raw, &appts); err != nil {
		return nil, fmt.Errorf("decode ledger payload: %w", err)
	}
	return appts, nil
}

func (s *PostgresStore) Save(ctx context.Context, appts []model.Appointment) error {
	if appts == nil {
		appts = []model.Appointment{}
	}
	raw, err := json.Marshal(appts)
	if err != nil {
		return fmt.Errorf("encode ledger payload: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO ledger_snapshots (key, payload)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = now()
	`, s.key, raw)
	if err != nil {
		return fmt.Errorf("save ledger to postgres: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ready(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
