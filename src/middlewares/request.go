package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const REQUEST_ID_HEADER = "X-Request-ID"

// RequestID keeps an incoming X-Request-ID or stamps a new one.
func RequestID(ctx *gin.Context) {
	id := ctx.GetHeader(REQUEST_ID_HEADER)
	if id == "" || len(id) > 64 {
		id = uuid.NewString()
	}
	ctx.Set("request_id", id)
	ctx.Header(REQUEST_ID_HEADER, id)
}

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("Referrer-Policy", "no-referrer")
}
