package pushtokens

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const QueryTimeoutDuration = 5 * time.Second

// Store keeps Expo push tokens per guest session so cart and order
// notifications can reach the shopper's device.
type Store interface {
	AddOrUpdateToken(ctx context.Context, sessionID, token string, deviceInfo json.RawMessage) error
	RemoveToken(ctx context.Context, sessionID, token string) error
	RemoveTokensByTokenList(ctx context.Context, tokens []string) error
	TokensForSession(ctx context.Context, sessionID string) ([]string, error)
	PruneStaleTokens(ctx context.Context, olderThan time.Duration) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// AddOrUpdateToken upserts token + device info, refreshing last_updated.
func (r *Repository) AddOrUpdateToken(ctx context.Context, sessionID, token string, deviceInfo json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
	INSERT INTO session_push_tokens (session_id, expo_push_token, device_info, last_updated)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (session_id, expo_push_token)
	DO UPDATE SET device_info = EXCLUDED.device_info, last_updated = NOW();
	`

	_, err := r.db.Exec(ctx, q, sessionID, token, deviceInfo)
	return err
}

func (r *Repository) RemoveToken(ctx context.Context, sessionID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `DELETE FROM session_push_tokens WHERE session_id = $1 AND expo_push_token = $2`
	_, err := r.db.Exec(ctx, q, sessionID, token)
	return err
}

// RemoveTokensByTokenList deletes tokens Expo reported as no longer
// registered.
func (r *Repository) RemoveTokensByTokenList(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `DELETE FROM session_push_tokens WHERE expo_push_token = ANY($1)`
	_, err := r.db.Exec(ctx, q, tokens)
	return err
}

func (r *Repository) TokensForSession(ctx context.Context, sessionID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `SELECT expo_push_token FROM session_push_tokens WHERE session_id = $1`
	rows, err := r.db.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	var token string
	for rows.Next() {
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// PruneStaleTokens deletes tokens not refreshed within olderThan. Guest
// sessions churn, so this runs periodically from the server.
func (r *Repository) PruneStaleTokens(ctx context.Context, olderThan time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	interval := fmt.Sprintf("%d seconds", int64(olderThan.Seconds()))
	q := `DELETE FROM session_push_tokens WHERE last_updated < NOW() - $1::interval`
	_, err := r.db.Exec(ctx, q, interval)
	return err
}
