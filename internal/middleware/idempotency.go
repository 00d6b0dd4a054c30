package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/diewo77/invoice-admin/internal/auth"
	"github.com/diewo77/invoice-admin/internal/httpx"
	"github.com/diewo77/invoice-admin/internal/i18n"
)

// How long the "in-progress" lock holds before the handler must have finished.
const provisionalLockTTL = 60 * time.Second

// idempEntry is what we persist per request key: first the provisional
// in-progress marker, then the recorded final response.
type idempEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// buildKey composes the idempotency key: same user retrying the same
// request id on the same route hits the same entry.
func buildKey(method, path string, userID uint, reqID string) string {
	return "idemp:" + method + ":" + path + ":" + strconv.FormatUint(uint64(userID), 10) + ":" + reqID
}

// bodyHash fingerprints the request body so a reused request id with a
// different payload can be rejected instead of silently replayed.
func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Idempotency deduplicates mutating requests carrying an X-Request-Id.
// A second submission with the same id (double click, client retry)
// either replays the recorded response or, while the first is still in
// flight, gets a conflict. GET/HEAD/OPTIONS and requests without the
// header pass through untouched.
//
// This guards the submit race one layer above the invoice-number
// allocator; the unique index below stays the final authority.
func Idempotency(rdb *redis.Client, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			reqID := r.Header.Get(RequestIDHeader)
			userID, ok := auth.UserIDFromContext(r.Context())
			if reqID == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
			}
			r.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := buildKey(r.Method, r.URL.Path, userID, reqID)
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			entry := idempEntry{InProgress: true, BodySHA256: bhash, CreatedAt: time.Now().UTC()}
			acquired, err := provisionalSet(ctx, rdb, key, entry)
			if err != nil {
				// Degrade open rather than blocking invoicing on redis.
				log.Warn().Err(err).Msg("idempotency store unavailable, passing through")
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				cur, lerr := loadEntry(ctx, rdb, key)
				if lerr != nil {
					log.Warn().Err(lerr).Str("key", key).Msg("idempotency entry load failed")
				}
				lang := i18n.Lang(r.Context())
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					httpx.JSONError(w, http.StatusConflict, "idempotency_conflict", i18n.T(lang, "idempotency_conflict"), nil)
					return
				}
				if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(cur.Code)
					_, _ = w.Write(cur.Body)
					return
				}
				httpx.JSONError(w, http.StatusConflict, "idempotency_replaying", i18n.T(lang, "idempotency_replaying"), nil)
				return
			}

			rec := &respRecorder{w: w, buf: &bytes.Buffer{}, code: http.StatusOK}
			next.ServeHTTP(rec, r)

			final := idempEntry{
				InProgress: false,
				Code:       rec.code,
				Body:       rec.buf.Bytes(),
				BodySHA256: bhash,
				CreatedAt:  time.Now().UTC(),
			}
			if err := saveFinal(context.Background(), rdb, key, final, ttl); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("idempotency entry save failed")
			}
		})
	}
}

func provisionalSet(ctx context.Context, rdb *redis.Client, key string, e idempEntry) (bool, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, raw, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var e idempEntry
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, fmt.Errorf("decode idempotency entry: %w", err)
	}
	return e, nil
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, e idempEntry, ttl time.Duration) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, raw, ttl).Err()
}
