package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/infrastructure/storage/postgres"
	"kadryhr/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

const (
	maxIdempotencyBodyBytes = 1 << 20 // 1 MiB
	maxIdempotencyKeyLength = 255
	idempotencyStateKey     = "idempotency"
)

// IdempotencyStore records responses of mutating requests per organisation and key.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, req postgres.IdempotencyRequest) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key postgres.IdempotencyKey, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key postgres.IdempotencyKey, statusCode int, contentType string, body []byte) error
}

type idempotencyState struct {
	store IdempotencyStore
	key   postgres.IdempotencyKey
}

func idempotencyFrom(c *gin.Context) *idempotencyState {
	v, ok := c.Get(idempotencyStateKey)
	if !ok {
		return nil
	}
	state, _ := v.(*idempotencyState)
	return state
}

// Idempotency replays the stored response of a POST/PUT/PATCH repeated with the same X-Idempotency-Key.
// It must run after Auth: keys are scoped to the caller's organisation.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		ident := appctx.GetIdentity(c.Request.Context())
		if key == "" || ident == nil {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			_ = c.Error(apperror.NewValidation("Idempotency key too long"))
			c.Abort()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("Invalid request body").WithCause(err))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("Request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithContext("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)

		req := postgres.IdempotencyRequest{
			IdempotencyKey: postgres.IdempotencyKey{OrganisationID: ident.OrganisationID, Key: key},
			UserID:         ident.UserID,
			Operation:      c.Request.Method + " " + c.FullPath(),
			RequestHash:    hex.EncodeToString(hash[:]),
		}

		replay, err := store.AcquireKey(c.Request.Context(), req)
		if err != nil {
			if !apperror.IsAppError(err) {
				err = apperror.NewInternal(err).WithContext("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Set(idempotencyStateKey, &idempotencyState{store: store, key: req.IdempotencyKey})

		c.Next()

		// Failures without a written body are completed by ErrorHandler.
		if !rec.Written() {
			return
		}
		finish := store.CompleteKey
		if rec.Status() >= http.StatusBadRequest {
			finish = store.FailKey
		}
		if err := finish(context.WithoutCancel(c.Request.Context()), req.IdempotencyKey, rec.Status(), rec.Header().Get("Content-Type"), rec.buf.Bytes()); err != nil {
			logger.Warn(c.Request.Context(), "complete idempotency key", "error", err)
		}
	}
}

// bodyRecorder copies the response body for replay.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
