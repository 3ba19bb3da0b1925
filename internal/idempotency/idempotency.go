// Package idempotency replays the stored response of a POST that carries an
// Idempotency-Key header the server has already answered.
package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	HeaderKey = "Idempotency-Key"
	HeaderHit = "X-Idempotency-Hit"

	keyPrefix = "idempotency:"
	// reservationTTL bounds how long a crashed request blocks its key.
	reservationTTL = time.Minute
)

// CachedResponse is what is stored per key. Pending marks a request that is
// still running.
type CachedResponse struct {
	Pending    bool        `json:"pending,omitempty"`
	StatusCode int         `json:"statusCode"`
	Body       []byte      `json:"body"`
	Headers    http.Header `json:"headers,omitempty"`
}

// IStore persists responses by idempotency key.
type IStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, error)
	Reserve(ctx context.Context, key string) (bool, error)
	Save(ctx context.Context, key string, response CachedResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// RedisStore keeps responses in Redis under idempotency:<key>.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*CachedResponse, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}

	var resp CachedResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached response: %w", err)
	}
	return &resp, nil
}

// Reserve claims key for a running request. It reports false when another
// request already holds or answered it.
func (s *RedisStore) Reserve(ctx context.Context, key string) (bool, error) {
	marker, err := json.Marshal(CachedResponse{Pending: true})
	if err != nil {
		return false, err
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+key, marker, reservationTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, response CachedResponse, ttl time.Duration) error {
	b, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	return s.client.Set(ctx, keyPrefix+key, b, ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

// responseRecorder copies what the handler writes.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Middleware replays stored responses for POST requests with a known key.
// Responses of 500 and above are not stored so the client can retry them.
// Store errors fail open.
func Middleware(store IStore, ttl time.Duration, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key = r.URL.Path + ":" + key
			entry := log.WithField("idempotencyKey", key)

			reserved, err := store.Reserve(ctx, key)
			if err != nil {
				entry.WithError(err).Error("Idempotency.Reserve.Error")
				next.ServeHTTP(w, r)
				return
			}

			if !reserved {
				cached, err := store.Get(ctx, key)
				if err != nil {
					entry.WithError(err).Error("Idempotency.Get.Error")
					next.ServeHTTP(w, r)
					return
				}
				if cached == nil {
					// expired between the two calls
					next.ServeHTTP(w, r)
					return
				}
				if cached.Pending {
					http.Error(w, "a request with this idempotency key is in progress", http.StatusConflict)
					return
				}

				entry.Info("Idempotency.Hit")
				for name, values := range cached.Headers {
					w.Header()[name] = values
				}
				w.Header().Set(HeaderHit, "true")
				w.WriteHeader(cached.StatusCode)
				if _, err := w.Write(cached.Body); err != nil {
					entry.WithError(err).Error("Idempotency.Replay.Error")
				}
				return
			}

			recorder := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(recorder, r)

			// the client may have gone away; the outcome must still be stored
			ctx = context.WithoutCancel(ctx)
			if recorder.statusCode >= 500 {
				if err := store.Release(ctx, key); err != nil {
					entry.WithError(err).Error("Idempotency.Release.Error")
				}
				return
			}

			headers := http.Header{}
			if ct := w.Header().Get("Content-Type"); ct != "" {
				headers.Set("Content-Type", ct)
			}
			err = store.Save(ctx, key, CachedResponse{
				StatusCode: recorder.statusCode,
				Body:       recorder.body.Bytes(),
				Headers:    headers,
			}, ttl)
			if err != nil {
				entry.WithError(err).Error("Idempotency.Save.Error")
			}
		})
	}
}
