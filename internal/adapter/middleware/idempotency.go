package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// A handler must finish within this window or the id becomes usable again.
	pendingTTL   = 60 * time.Second
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

// capture tees the response body so it can be stored for replay.
type capture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *capture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Idempotency makes a mutating request safe to retry: a request that repeats its
// Ax-Request-Id gets the stored response instead of running the handler again.
// Requests without the header pass through. 5xx responses are not stored.
func Idempotency(rdb redis.Cmdable, ttl time.Duration, log *logrus.Logger) echo.MiddlewareFunc {
	store := replayStore{rdb: rdb, ttl: ttl, pending: pendingTTL}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !mutating(req.Method) || strings.TrimSpace(req.Header.Get(HeaderRequestID)) == "" {
				return next(c)
			}
			reqID, reqAt, err := replayHeaders(req.Header, time.Now().UTC())
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			actor, ok := Actor(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			sum := digest(body)
			key := replayKey(req.Method, c.Path(), actor.ID, reqID)
			fields := logrus.Fields{"key": key, "user_id": actor.ID}

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			won, err := store.reserve(ctx, key, replayEntry{
				Pending: true, Digest: sum, RequestAtMS: reqAt.UnixMilli(), StoredAt: time.Now().UTC(),
			})
			if err != nil {
				log.WithError(err).WithFields(fields).Error("idempotency: store unavailable")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !won {
				prev, err := store.load(ctx, key)
				if err != nil {
					log.WithError(err).WithFields(fields).Warn("idempotency: load failed")
				}
				return replay(c, prev, sum)
			}

			w := &capture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = w
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be gone once the handler returned
			bg, cancelBg := context.WithTimeout(context.Background(), storeTimeout)
			defer cancelBg()
			if w.status >= http.StatusInternalServerError {
				if err := store.release(bg, key); err != nil {
					log.WithError(err).WithFields(fields).Warn("idempotency: release failed")
				}
				return nil
			}
			err = store.complete(bg, key, replayEntry{
				Status:      w.status,
				ContentType: w.Header().Get(echo.HeaderContentType),
				Body:        w.body.Bytes(),
				Digest:      sum,
				RequestAtMS: reqAt.UnixMilli(),
				StoredAt:    time.Now().UTC(),
			})
			if err != nil {
				log.WithError(err).WithFields(fields).Warn("idempotency: save failed")
			}
			return nil
		}
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func replay(c echo.Context, prev replayEntry, sum string) error {
	switch {
	case !prev.matches(sum):
		return c.JSON(http.StatusConflict, map[string]string{"error": "Ax-Request-Id reused with different body"})
	case prev.replayable():
		c.Response().Header().Set(HeaderReplay, "true")
		ct := prev.ContentType
		if ct == "" {
			ct = echo.MIMEApplicationJSON
		}
		return c.Blob(prev.Status, ct, prev.Body)
	default:
		return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
	}
}
