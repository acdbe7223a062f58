package middleware

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/spiritanimal-backend/internal/platform/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"

	RequestIDKey = "request_id"
	TraceIDKey   = "trace_id"

	maxInboundIDLen = 128
)

// AttachTraceContext assigns every request a request id and a trace id. A live otel
// span owns the trace id so logs, error envelopes and exported spans share one value;
// the caller's X-Trace-Id only applies when no span is recording.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := inboundID(c.GetHeader(HeaderRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}

		span := trace.SpanFromContext(c.Request.Context())
		traceID := ""
		if sc := span.SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		if traceID == "" {
			traceID = inboundID(c.GetHeader(HeaderTraceID))
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		if span.IsRecording() {
			span.SetAttributes(attribute.String("spirit.request_id", reqID))
			if client := inboundID(c.GetHeader(HeaderTraceID)); client != "" && client != traceID {
				span.SetAttributes(attribute.String("spirit.client_trace_id", client))
			}
		}

		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{TraceID: traceID, RequestID: reqID})
		c.Request = c.Request.WithContext(ctx)
		c.Set(TraceIDKey, traceID)
		c.Set(RequestIDKey, reqID)
		c.Writer.Header().Set(HeaderTraceID, traceID)
		c.Writer.Header().Set(HeaderRequestID, reqID)
		c.Next()
	}
}

// inboundID drops caller-supplied ids that are too long or carry control characters,
// since they are echoed into headers and logs.
func inboundID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxInboundIDLen {
		return ""
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return ""
		}
	}
	return id
}
