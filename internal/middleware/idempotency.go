package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	idempotencyTTL     = 24 * time.Hour
	idempotencyLockTTL = 30 * time.Second
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func IdempotencyKey(path string, employeeID uint, key string) string {
	return fmt.Sprintf("idemp:%s:%d:%s", path, employeeID, key)
}

// Idempotency replays the stored response of a POST that was already
// processed with the same Idempotency-Key by the same employee. A second
// request racing the first gets 409 while the first is in flight.
func Idempotency(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost || rdb == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := IdempotencyKey(c.FullPath(), c.GetUint(ContextEmployeeID), key)
		lockKey := cacheKey + ":lock"

		val, err := rdb.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var stored storedResponse
			if json.Unmarshal(val, &stored) == nil {
				c.Header(HeaderReplayed, "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Warn("idempotency lookup failed, continuing without it", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			logger.Warn("idempotency lock failed, continuing without it", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			response.Abort(c, apperror.New(
				apperror.CodeConflict,
				"A request with this Idempotency-Key is still being processed",
				http.StatusConflict,
			))
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// Server errors are not remembered so the client may retry.
		if rec.Status() < http.StatusInternalServerError {
			payload, _ := json.Marshal(storedResponse{
				Status:      rec.Status(),
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
			if err := rdb.Set(ctx, cacheKey, payload, idempotencyTTL).Err(); err != nil {
				logger.Warn("idempotency store failed", zap.Error(err))
			}
		}
		if err := rdb.Del(ctx, lockKey).Err(); err != nil {
			logger.Warn("idempotency unlock failed", zap.Error(err))
		}
	}
}
