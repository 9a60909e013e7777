package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/jobshare/sharetrack/internal/storage"
)

// Load returns the blob stored under key, or storage.ErrNotFound.
func (r *Repository) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.pool.QueryRow(ctx, `SELECT value FROM share_blobs WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query blob: %w", err)
	}
	return value, nil
}

// Save upserts the blob stored under key. value must be valid JSON.
func (r *Repository) Save(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO share_blobs (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("upsert blob: %w", err)
	}
	return nil
}

// Delete removes all given keys in a single statement.
func (r *Repository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM share_blobs WHERE key = ANY($1)`, pq.Array(keys)); err != nil {
		return fmt.Errorf("delete blobs: %w", err)
	}
	return nil
}

var _ storage.BlobStore = (*Repository)(nil)
