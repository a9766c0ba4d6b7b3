package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradedesk/internal/core/apperror"
	appctx "tradedesk/internal/core/context"
	"tradedesk/internal/infrastructure/storage/postgres"
	"tradedesk/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const HeaderIdempotencyReplayed = "Idempotent-Replayed"

const (
	maxIdempotencyBodyBytes = 1 << 20 // 1 MiB
	maxIdempotencyKeyLen    = 255
)

// IdempotencyStore is the persistence used by Idempotency.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, clientID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key, clientID string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key, clientID string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key, clientID string) error
}

var _ IdempotencyStore = (*postgres.IdempotencyStore)(nil)

// Idempotency middleware makes POST/PUT/PATCH requests carrying
// X-Idempotency-Key safe to retry. The first finished response is stored
// and replayed for every later request with the same key and body:
//   - 2xx responses are stored as success
//   - 4xx responses are stored as failed; the same request would fail again
//   - 5xx and retryable errors release the key so the retry runs for real
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			_ = c.Error(apperror.NewFieldValidation(HeaderIdempotencyKey, "idempotency key is too long").
				WithDetail("max_length", maxIdempotencyKeyLen))
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		clientID := appctx.GetClientID(ctx)

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, err := io.ReadAll(limited)
		if err != nil {
			_ = c.Error(apperror.NewValidation("failed to read request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(ctx, key, clientID, operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Header(HeaderIdempotencyReplayed, "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec

		defer func() {
			if r := recover(); r != nil {
				if err := store.ReleaseKey(context.WithoutCancel(ctx), key, clientID); err != nil {
					logger.Error(ctx, "failed to release idempotency key", "key", key, "error", err)
				}
				panic(r)
			}
		}()

		c.Next()

		// Render here rather than in ErrorHandler so the stored body is the one sent.
		var lastErr error
		if len(c.Errors) > 0 {
			lastErr = c.Errors.Last().Err
			if !rec.Written() {
				RenderError(c, lastErr)
			}
		}

		// The client may be gone; the key must still be settled.
		settleCtx := context.WithoutCancel(ctx)
		status := rec.Status()
		contentType := rec.Header().Get("Content-Type")

		switch {
		case status >= http.StatusInternalServerError || apperror.IsRetryable(lastErr):
			err = store.ReleaseKey(settleCtx, key, clientID)
		case status >= http.StatusBadRequest:
			err = store.FailKey(settleCtx, key, clientID, status, contentType, rec.body.Bytes())
		default:
			err = store.CompleteKey(settleCtx, key, clientID, status, contentType, rec.body.Bytes())
		}
		if err != nil {
			logger.Error(ctx, "failed to settle idempotency key", "key", key, "status", status, "error", err)
		}
	}
}

// recordingWriter keeps a copy of the response body for replay.
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
