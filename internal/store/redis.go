package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/telecrm/helpdesk-sso/internal/domain"
)

const (
	pendingKeyPrefix = "sso:pending:"
	sessionKeyPrefix = "sso:session:"
	verifiedSetKey   = "sso:verified"
	counterKeyPrefix = "sso:rl:"
)

// Redis is the shared Store for multi-instance deployments. Pending and
// session records carry a Redis TTL slightly above their logical expiry so
// the server never has to sweep them.
type Redis struct {
	client     *redis.Client
	pendingTTL time.Duration
	sessionTTL time.Duration
}

func NewRedis(url, password string, db int, pendingTTL, sessionTTL time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DB = db

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{
		client:     client,
		pendingTTL: pendingTTL,
		sessionTTL: sessionTTL,
	}, nil
}

func (r *Redis) CreatePending(ctx context.Context, rec domain.PendingVerification) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// Keep the key around one extra hour past the logical TTL so expiry is
	// still detected (and reported as expired) at verify time.
	return r.client.Set(ctx, pendingKeyPrefix+rec.Token, data, r.pendingTTL+time.Hour).Err()
}

func (r *Redis) GetPending(ctx context.Context, token string) (*domain.PendingVerification, error) {
	data, err := r.client.Get(ctx, pendingKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec domain.PendingVerification
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Redis) ConsumePending(ctx context.Context, token string) (*domain.PendingVerification, error) {
	// GETDEL makes check-and-delete a single atomic operation, so two
	// concurrent verify calls cannot both consume the token.
	data, err := r.client.GetDel(ctx, pendingKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec domain.PendingVerification
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Redis) ListPending(ctx context.Context) ([]domain.PendingVerification, error) {
	var out []domain.PendingVerification
	iter := r.client.Scan(ctx, 0, pendingKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec domain.PendingVerification
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, iter.Err()
}

func (r *Redis) AddVerified(ctx context.Context, email string) error {
	return r.client.SAdd(ctx, verifiedSetKey, email).Err()
}

func (r *Redis) IsVerified(ctx context.Context, email string) (bool, error) {
	return r.client.SIsMember(ctx, verifiedSetKey, email).Result()
}

func (r *Redis) RemoveVerified(ctx context.Context, email string) (bool, error) {
	n, err := r.client.SRem(ctx, verifiedSetKey, email).Result()
	return n > 0, err
}

func (r *Redis) ListVerified(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, verifiedSetKey).Result()
}

func (r *Redis) PutSession(ctx context.Context, s domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		ttl = r.sessionTTL
	}
	return r.client.Set(ctx, sessionKeyPrefix+s.ID, data, ttl).Err()
}

func (r *Redis) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return &s, nil
}

func (r *Redis) DeleteSession(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}

func (r *Redis) IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := counterKeyPrefix + key
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		r.client.Expire(ctx, k, window)
	}
	return count, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
