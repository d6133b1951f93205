package redemption

import (
	"context"
	"database/sql"
	"time"
)

// PostgresBackend stores claims in the token_redemptions table. Expired
// rows are reclaimable, so the table needs no sweeper for correctness.
type PostgresBackend struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db, now: time.Now}
}

func (b *PostgresBackend) Claim(ctx context.Context, key string, ttl time.Duration) error {
	now := b.now().UTC()
	const query = `
		INSERT INTO token_redemptions (key, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
			SET expires_at = EXCLUDED.expires_at
			WHERE token_redemptions.expires_at < $3`
	result, err := b.db.ExecContext(ctx, query, key, now.Add(ttl), now)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyRedeemed
	}
	return nil
}

func (b *PostgresBackend) Release(ctx context.Context, key string) error {
	const query = `DELETE FROM token_redemptions WHERE key = $1`
	_, err := b.db.ExecContext(ctx, query, key)
	return err
}

// Purge deletes expired claims.
func (b *PostgresBackend) Purge(ctx context.Context) (int64, error) {
	const query = `DELETE FROM token_redemptions WHERE expires_at < $1`
	result, err := b.db.ExecContext(ctx, query, b.now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
