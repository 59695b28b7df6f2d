package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/learnpath-backend/internal/platform/ctxutil"
)

// Both ids are echoed on every response.
const (
	TraceIDHeader   = "X-Trace-Id"
	RequestIDHeader = "X-Request-Id"

	maxRequestIDLen = 128
)

// AttachTraceContext puts a ctxutil.TraceData on the request context. The
// trace id is the active span's when otelgin runs first, then a well-formed
// X-Trace-Id, else a fresh one. A client X-Request-Id is kept only if it is
// short printable ASCII.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		td := &ctxutil.TraceData{
			TraceID:   resolveTraceID(ctx, c.GetHeader(TraceIDHeader)),
			RequestID: resolveRequestID(c.GetHeader(RequestIDHeader)),
		}
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(attribute.String("http.request_id", td.RequestID))
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, td))

		h := c.Writer.Header()
		h.Set(TraceIDHeader, td.TraceID)
		h.Set(RequestIDHeader, td.RequestID)
		c.Next()
	}
}

func resolveTraceID(ctx context.Context, header string) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if id, err := trace.TraceIDFromHex(strings.ToLower(strings.TrimSpace(header))); err == nil {
		return id.String()
	}
	// same 32 hex digit shape as an otel trace id
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func resolveRequestID(header string) string {
	id := strings.TrimSpace(header)
	if id == "" || len(id) > maxRequestIDLen {
		return uuid.NewString()
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '!' || id[i] > '~' {
			return uuid.NewString()
		}
	}
	return id
}
