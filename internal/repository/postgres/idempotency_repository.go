package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	IdempotencyPending   = "pending"
	IdempotencyCompleted = "completed"
)

// IdempotencyEntry is a stored response replayed for a repeated Idempotency-Key.
// A pending entry holds the key while the first request is still running.
type IdempotencyEntry struct {
	Key            string
	RequestHash    string
	Status         string
	ResponseBody   string
	ResponseStatus int
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

func (e *IdempotencyEntry) Pending() bool {
	return e.Status == IdempotencyPending
}

type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

func (r *IdempotencyRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Get returns the live entry for key, or nil when there is none.
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*IdempotencyEntry, error) {
	var e IdempotencyEntry
	err := r.db(ctx).QueryRow(ctx,
		`SELECT key, request_hash, status, response_body, response_status, created_at, expires_at
		 FROM idempotency_keys
		 WHERE key = $1 AND expires_at > NOW()`, key,
	).Scan(&e.Key, &e.RequestHash, &e.Status, &e.ResponseBody, &e.ResponseStatus, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get idempotency key", err)
	}
	return &e, nil
}

// Reserve claims key for a request with the given hash. When another live
// entry already holds the key, it is returned and reserved is false. An
// expired entry is taken over.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) (*IdempotencyEntry, bool, error) {
	var claimed string
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO idempotency_keys (key, request_hash, status, created_at, expires_at)
		 VALUES ($1, $2, 'pending', NOW(), $3)
		 ON CONFLICT (key) DO UPDATE
		 SET request_hash = EXCLUDED.request_hash,
		     status = 'pending',
		     response_body = '',
		     response_status = 0,
		     created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at
		 WHERE idempotency_keys.expires_at <= NOW()
		 RETURNING key`,
		key, requestHash, expiresAt,
	).Scan(&claimed)
	if err == nil {
		return nil, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, classify("reserve idempotency key", err)
	}

	existing, err := r.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// Released between the insert and the read; report it as still running.
		existing = &IdempotencyEntry{Key: key, RequestHash: requestHash, Status: IdempotencyPending}
	}
	return existing, false, nil
}

// Complete stores the response of a reserved key.
func (r *IdempotencyRepository) Complete(ctx context.Context, e *IdempotencyEntry) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE idempotency_keys
		 SET status = 'completed', response_body = $3, response_status = $4, expires_at = $5
		 WHERE key = $1 AND request_hash = $2 AND status = 'pending'`,
		e.Key, e.RequestHash, e.ResponseBody, e.ResponseStatus, e.ExpiresAt,
	)
	if err != nil {
		return classify("complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete idempotency key %q: reservation lost", e.Key)
	}
	return nil
}

// Release drops a pending reservation so the key can be retried.
func (r *IdempotencyRepository) Release(ctx context.Context, key, requestHash string) error {
	_, err := r.db(ctx).Exec(ctx,
		`DELETE FROM idempotency_keys WHERE key = $1 AND request_hash = $2 AND status = 'pending'`,
		key, requestHash)
	if err != nil {
		return classify("release idempotency key", err)
	}
	return nil
}

// Cleanup deletes expired entries and returns how many were removed.
func (r *IdempotencyRepository) Cleanup(ctx context.Context) (int64, error) {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at < NOW()`)
	if err != nil {
		return 0, classify("cleanup idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
