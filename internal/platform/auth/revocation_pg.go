package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGBlacklist stores revoked jtis in the token_blacklist table.
type PGBlacklist struct {
	pool *pgxpool.Pool
}

func NewPGBlacklist(pool *pgxpool.Pool) *PGBlacklist {
	return &PGBlacklist{pool: pool}
}

func (b *PGBlacklist) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	_, err := b.pool.Exec(ctx, `
		INSERT INTO token_blacklist (jti, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (jti) DO NOTHING`,
		jti, uid, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (b *PGBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := b.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE jti = $1)`, jti,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query blacklist: %w", err)
	}
	return exists, nil
}

// Purge deletes rows whose tokens have expired and returns how many went.
func (b *PGBlacklist) Purge(ctx context.Context) (int64, error) {
	tag, err := b.pool.Exec(ctx, `DELETE FROM token_blacklist WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge blacklist: %w", err)
	}
	return tag.RowsAffected(), nil
}
