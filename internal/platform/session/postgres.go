package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps sealed sessions in console_sessions.
type PostgresStore struct {
	pool  *pgxpool.Pool
	codec *Codec
}

func NewPostgresStore(pool *pgxpool.Pool, codec *Codec) *PostgresStore {
	return &PostgresStore{pool: pool, codec: codec}
}

func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	sealed, err := p.codec.Seal(s)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
    INSERT INTO console_sessions (id, user_id, role, payload, created_at, expires_at)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (id) DO UPDATE
    SET payload = EXCLUDED.payload, role = EXCLUDED.role, expires_at = EXCLUDED.expires_at, updated_at = now()
  `, s.ID, s.UserID, s.Role, sealed, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("postgres save session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	var sealed []byte
	err := p.pool.QueryRow(ctx, `
    SELECT payload FROM console_sessions
    WHERE id = $1 AND expires_at > now()
  `, id).Scan(&sealed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres load session: %w", err)
	}
	return p.codec.Open(sealed)
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM console_sessions WHERE id = $1", id); err != nil {
		return fmt.Errorf("postgres delete session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM console_sessions WHERE expires_at <= $1", now)
	if err != nil {
		return 0, fmt.Errorf("postgres sweep sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
