package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telecrm/helpdesk-sso/internal/domain"
)

// Postgres is the durable Store. Expected schema:
//
//	pending_verifications(token text primary key, email text, ticket_id text,
//	                      return_to text, requested_at timestamptz)
//	verified_emails(email text primary key, verified_at timestamptz default now())
//	sessions(id text primary key, email text, name text, expires_at timestamptz)
//	rate_limits(rl_key text primary key, count int, window_start timestamptz)
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) CreatePending(ctx context.Context, rec domain.PendingVerification) error {
	const q = `
		INSERT INTO pending_verifications (token, email, ticket_id, return_to, requested_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := p.pool.Exec(ctx, q, rec.Token, rec.Email, rec.TicketID, rec.ReturnTo, rec.RequestedAt)
	return err
}

func (p *Postgres) GetPending(ctx context.Context, token string) (*domain.PendingVerification, error) {
	const q = `
		SELECT token, email, ticket_id, return_to, requested_at
		FROM pending_verifications
		WHERE token = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rec domain.PendingVerification
	err := p.pool.QueryRow(ctx, q, token).Scan(
		&rec.Token, &rec.Email, &rec.TicketID, &rec.ReturnTo, &rec.RequestedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Postgres) ConsumePending(ctx context.Context, token string) (*domain.PendingVerification, error) {
	// DELETE ... RETURNING removes and reads the row in one statement, so
	// concurrent verify calls for the same token see at most one winner.
	const q = `
		DELETE FROM pending_verifications
		WHERE token = $1
		RETURNING token, email, ticket_id, return_to, requested_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rec domain.PendingVerification
	err := p.pool.QueryRow(ctx, q, token).Scan(
		&rec.Token, &rec.Email, &rec.TicketID, &rec.ReturnTo, &rec.RequestedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Postgres) ListPending(ctx context.Context) ([]domain.PendingVerification, error) {
	const q = `
		SELECT token, email, ticket_id, return_to, requested_at
		FROM pending_verifications
		ORDER BY requested_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PendingVerification
	for rows.Next() {
		var rec domain.PendingVerification
		if err := rows.Scan(&rec.Token, &rec.Email, &rec.TicketID, &rec.ReturnTo, &rec.RequestedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) AddVerified(ctx context.Context, email string) error {
	const q = `
		INSERT INTO verified_emails (email)
		VALUES ($1)
		ON CONFLICT (email) DO NOTHING`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := p.pool.Exec(ctx, q, email)
	return err
}

func (p *Postgres) IsVerified(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM verified_emails WHERE email = $1)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var ok bool
	err := p.pool.QueryRow(ctx, q, email).Scan(&ok)
	return ok, err
}

func (p *Postgres) RemoveVerified(ctx context.Context, email string) (bool, error) {
	const q = `DELETE FROM verified_emails WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := p.pool.Exec(ctx, q, email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) ListVerified(ctx context.Context) ([]string, error) {
	const q = `SELECT email FROM verified_emails ORDER BY verified_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func (p *Postgres) PutSession(ctx context.Context, s domain.Session) error {
	const q = `
		INSERT INTO sessions (id, email, name, expires_at)
		VALUES ($1, $2, $3, $4)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := p.pool.Exec(ctx, q, s.ID, s.Email, s.Name, s.ExpiresAt)
	return err
}

func (p *Postgres) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	const q = `
		SELECT id, email, name, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.Session
	err := p.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.Email, &s.Name, &s.ExpiresAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *Postgres) DeleteSession(ctx context.Context, id string) error {
	const q = `DELETE FROM sessions WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := p.pool.Exec(ctx, q, id)
	return err
}

func (p *Postgres) IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error) {
	const q = `
		INSERT INTO rate_limits (rl_key, count, window_start)
		VALUES ($1, 1, now())
		ON CONFLICT (rl_key) DO UPDATE SET
			count = CASE
				WHEN rate_limits.window_start < now() - ($2 * interval '1 second') THEN 1
				ELSE rate_limits.count + 1
			END,
			window_start = CASE
				WHEN rate_limits.window_start < now() - ($2 * interval '1 second') THEN now()
				ELSE rate_limits.window_start
			END
		RETURNING count`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int64
	err := p.pool.QueryRow(ctx, q, key, window.Seconds()).Scan(&count)
	return count, err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
