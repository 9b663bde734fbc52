package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const snapshotQueryTimeout = 5 * time.Second

// SnapshotStore persists cart snapshots as single JSON blobs keyed by
// storage key, one row per cart.
type SnapshotStore struct {
	db *pgxpool.Pool
}

func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotQueryTimeout)
	defer cancel()

	var payload []byte
	err := s.db.QueryRow(ctx, `
SELECT payload
FROM cart_snapshots
WHERE storage_key = $1
`, key).Scan(&payload)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return payload, nil
}

func (s *SnapshotStore) Save(ctx context.Context, key string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, snapshotQueryTimeout)
	defer cancel()

	_, err := s.db.Exec(ctx, `
INSERT INTO cart_snapshots (storage_key, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (storage_key)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
`, key, payload)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, snapshotQueryTimeout)
	defer cancel()

	_, err := s.db.Exec(ctx, `DELETE FROM cart_snapshots WHERE storage_key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
