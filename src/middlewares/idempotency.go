package middlewares

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IDEMPOTENCY_HEADER        = "Idempotency-Key"
	IDEMPOTENCY_REPLAY_HEADER = "Idempotent-Replayed"
	IDEMPOTENCY_TTL           = 24 * time.Hour
	IDEMPOTENCY_PENDING       = "pending"
)

func IdempotencyKey(userID uint, key string) string {
	return fmt.Sprintf("idempotency:%d:%s", userID, key)
}

// storedResponse is what a finished request leaves under its key.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
}

func encodeResponse(status int, contentType string, body []byte) (string, error) {
	b, err := json.Marshal(storedResponse{Status: status, ContentType: contentType, Body: string(body)})
	return string(b), err
}

func decodeResponse(raw string) (*storedResponse, bool) {
	if raw == "" || raw == IDEMPOTENCY_PENDING {
		return nil, false
	}
	var res storedResponse
	if err := json.Unmarshal([]byte(raw), &res); err != nil || res.Status == 0 {
		return nil, false
	}
	return &res, true
}

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

// Idempotency makes a repeated Idempotency-Key of the same caller answer
// with the response of the first request once it succeeded, and with 409
// while it is still in flight. Failed requests free the key again. Without
// a redis client the header is ignored.
func Idempotency(client *redis.Client) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := ctx.GetHeader(IDEMPOTENCY_HEADER)
		if key == "" || client == nil {
			ctx.Next()
			return
		}
		if len(key) > 128 {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "idempotency key is too long", "code": "validation_error"})
			return
		}
		rctx := ctx.Request.Context()
		rkey := IdempotencyKey(ctx.GetUint("id"), key)
		ok, err := client.SetNX(rctx, rkey, IDEMPOTENCY_PENDING, IDEMPOTENCY_TTL).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Printf("[idempotency] redis error, continuing without key: %s\n", err.Error())
			ctx.Next()
			return
		}
		if !ok {
			raw, err := client.Get(rctx, rkey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				log.Printf("[idempotency] failed to read %s: %s\n", rkey, err.Error())
			}
			if res, done := decodeResponse(raw); done {
				ctx.Header(IDEMPOTENCY_REPLAY_HEADER, "true")
				ctx.Data(res.Status, res.ContentType, []byte(res.Body))
				ctx.Abort()
				return
			}
			ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is still in progress", "code": "duplicate_request"})
			return
		}

		w := &recordingWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = w
		ctx.Next()

		if w.Status() >= http.StatusBadRequest {
			if err := client.Del(rctx, rkey).Err(); err != nil {
				log.Printf("[idempotency] failed to free %s: %s\n", rkey, err.Error())
			}
			return
		}
		value, err := encodeResponse(w.Status(), w.Header().Get("Content-Type"), w.body.Bytes())
		if err != nil {
			log.Printf("[idempotency] failed to encode response for %s: %s\n", rkey, err.Error())
			return
		}
		if err := client.Set(rctx, rkey, value, IDEMPOTENCY_TTL).Err(); err != nil {
			log.Printf("[idempotency] failed to store response for %s: %s\n", rkey, err.Error())
		}
	}
}
