package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/cassiomorais/courts/internal/repository/postgres"
	"github.com/rs/zerolog"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	maxIdempotencyKeyLen   = 255
	maxIdempotencyBodySize = 1 << 20

	// idempotencyLease bounds how long a crashed request can hold its key.
	idempotencyLease = time.Minute
)

// IdempotencyStore keeps responses keyed by Idempotency-Key.
type IdempotencyStore interface {
	// Reserve claims key for one request. When the key is already held the
	// live entry is returned with reserved set to false.
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) (entry *postgres.IdempotencyEntry, reserved bool, err error)
	Complete(ctx context.Context, e *postgres.IdempotencyEntry) error
	Release(ctx context.Context, key, requestHash string) error
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key. The key is reserved before the handler runs, so a
// concurrent repeat gets 409 instead of running twice, and a key reused for a
// different method, path or body gets 422. Server errors release the key so
// the client can retry them.
func Idempotency(store IdempotencyStore, ttl time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				writeJSONError(w, http.StatusBadRequest, "idempotency key too long", "invalid_idempotency_key")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBodySize+1))
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "failed to read request body", "invalid_body")
				return
			}
			if len(body) > maxIdempotencyBodySize {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large", "body_too_large")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := requestFingerprint(r.Method, r.URL.Path, body)
			log := logger.With().Str("idempotency_key", key).Logger()

			entry, reserved, err := store.Reserve(r.Context(), key, hash, time.Now().Add(idempotencyLease))
			if err != nil {
				log.Warn().Err(err).Msg("idempotency reservation failed")
				next.ServeHTTP(w, r)
				return
			}
			if !reserved {
				switch {
				case entry.RequestHash != hash:
					writeJSONError(w, http.StatusUnprocessableEntity, "idempotency key was used for a different request", "idempotency_key_mismatch")
				case entry.Pending():
					w.Header().Set("Retry-After", "1")
					writeJSONError(w, http.StatusConflict, "a request with this idempotency key is in progress", "duplicate_request")
				default:
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("X-Idempotency-Replayed", "true")
					w.WriteHeader(entry.ResponseStatus)
					_, _ = w.Write([]byte(entry.ResponseBody))
				}
				return
			}

			// The reservation outlives a cancelled request context.
			storeCtx := context.WithoutCancel(r.Context())
			completed := false
			defer func() {
				if completed {
					return
				}
				if err := store.Release(storeCtx, key, hash); err != nil {
					log.Warn().Err(err).Msg("idempotency release failed")
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= 500 || rec.bodyTruncated {
				return
			}
			now := time.Now()
			err = store.Complete(storeCtx, &postgres.IdempotencyEntry{
				Key:            key,
				RequestHash:    hash,
				Status:         postgres.IdempotencyCompleted,
				ResponseBody:   rec.body.String(),
				ResponseStatus: rec.statusCode,
				CreatedAt:      now,
				ExpiresAt:      now.Add(ttl),
			})
			if err != nil {
				log.Warn().Err(err).Msg("idempotency store failed")
				return
			}
			completed = true
		})
	}
}

// requestFingerprint ties a key to the request it was first used with.
func requestFingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	body          *bytes.Buffer
	bodyTruncated bool
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.bodyTruncated {
		if r.body.Len()+len(b) > maxIdempotencyBodySize {
			r.bodyTruncated = true
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}
