package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhuangyq008/s3-image-process/internal/id"
	"github.com/zhuangyq008/s3-image-process/internal/logger"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFrom returns the request id stored by the request middleware.
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// withRequestContext assigns a request id, attaches a tagged logger to the
// context and logs one line per request.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if !id.Valid(reqID) {
			reqID = id.New()
		}
		w.Header().Set(requestIDHeader, reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		ctx = logger.WithRequest(ctx, s.logger, reqID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(ctx))

		level := zerolog.InfoLevel
		if recorder.status >= http.StatusInternalServerError {
			level = zerolog.ErrorLevel
		} else if recorder.status >= http.StatusBadRequest {
			level = zerolog.WarnLevel
		}
		zerolog.Ctx(ctx).WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
