package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	HeaderReplay    = "Idempotent-Replay"

	replayPrefix = "fanders:replay:"
)

var (
	errBadRequestID = errors.New("invalid Ax-Request-Id format")
	errNoRequestAt  = errors.New("missing Ax-Request-At")
	errBadRequestAt = errors.New("Ax-Request-At must be epoch (s/ms) or RFC3339 with timezone")
	errSkewed       = errors.New("Ax-Request-At too skewed")

	uuidPattern  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	hex32Pattern = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// replayEntry is what a request id maps to: a pending marker while the handler
// runs, then the captured response.
type replayEntry struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	Digest      string    `json:"digest"`
	RequestAtMS int64     `json:"request_at_ms"`
	StoredAt    time.Time `json:"stored_at"`
}

// matches reports whether the stored request carried the same body.
func (e replayEntry) matches(digest string) bool {
	return e.Digest == "" || e.Digest == digest
}

func (e replayEntry) replayable() bool { return !e.Pending && e.Status != 0 }

type replayStore struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	pending time.Duration
}

// replayKey scopes a request id to the route template and the caller.
func replayKey(method, route string, userID uint64, requestID string) string {
	return fmt.Sprintf("%s%s:%s:%d:%s", replayPrefix, strings.ToLower(method), route, userID, strings.ToLower(requestID))
}

// reserve claims key for a new request. false means another request already holds it.
func (s replayStore) reserve(ctx context.Context, key string, e replayEntry) (bool, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, raw, s.pending).Result()
}

func (s replayStore) load(ctx context.Context, key string) (replayEntry, error) {
	var e replayEntry
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	return e, json.Unmarshal(raw, &e)
}

// complete swaps the pending marker for the final response, kept for the replay ttl.
func (s replayStore) complete(ctx context.Context, key string, e replayEntry) error {
	e.Pending = false
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, s.ttl).Err()
}

// release frees key so a failed request can be retried with the same id.
func (s replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func validRequestID(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	return uuidPattern.MatchString(id) || hex32Pattern.MatchString(id)
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 with a zone.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errNoRequestAt
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errBadRequestAt
	}
	return t.UTC(), nil
}

// replayHeaders validates the request id and timestamp headers against now.
func replayHeaders(h http.Header, now time.Time) (string, time.Time, error) {
	id := strings.TrimSpace(h.Get(HeaderRequestID))
	if !validRequestID(id) {
		return "", time.Time{}, errBadRequestID
	}
	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return "", time.Time{}, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return "", time.Time{}, errSkewed
	}
	return id, at, nil
}
