package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cassiomorais/courts/internal/domain/outbox"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxRepository implements outbox.Repository using PostgreSQL.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Insert writes the entry using whatever transaction ctx carries.
func (r *OutboxRepository) Insert(ctx context.Context, e *outbox.Entry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, status, retry_count, max_retries, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.AggregateType, e.AggregateID, e.EventType, payload,
		string(e.Status), e.RetryCount, e.MaxRetries, e.CreatedAt,
	)
	if err != nil {
		return classify("insert outbox entry", err)
	}
	return nil
}

// GetPending locks up to limit pending entries, skipping rows another relay holds.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, status, retry_count, max_retries, created_at, published_at
		 FROM outbox
		 WHERE status = 'pending'
		 ORDER BY created_at
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, classify("get pending outbox entries", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*outbox.Entry, error) {
		var (
			e       outbox.Entry
			payload []byte
			status  string
		)
		if err := row.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload,
			&status, &e.RetryCount, &e.MaxRetries, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, err
		}
		e.Status = outbox.Status(status)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload of %s: %w", e.ID, err)
			}
		}
		return &e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan outbox entries: %w", err)
	}
	return entries, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.db(ctx).Exec(ctx,
		`UPDATE outbox SET status = 'published', published_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return classify("mark outbox published", err)
	}
	return nil
}

// MarkFailed counts a failed relay attempt; the entry is parked as failed after max_retries.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db(ctx).Exec(ctx,
		`UPDATE outbox
		 SET retry_count = retry_count + 1,
		     status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END
		 WHERE id = $1`, id)
	if err != nil {
		return classify("mark outbox failed", err)
	}
	return nil
}

// CountPending reports the relay backlog.
func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE status = 'pending'`).Scan(&n); err != nil {
		return 0, classify("count pending outbox entries", err)
	}
	return n, nil
}
