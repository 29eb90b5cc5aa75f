package observability

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/chiwarira/alpha-lpgas-new/internal/platform/httpx"
)

// RequestLoggerMiddleware logs request completion with structured fields and
// stores a request-scoped logger on the context.
func RequestLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestLogger := logger.With(
				zap.String("request_id", middleware.GetReqID(ctx)),
				zap.String("method", r.Method),
				zap.String("route", routePattern(r)),
			)
			if ip := realIP(r); ip != "" {
				requestLogger = requestLogger.With(zap.String("remote_ip", ip))
			}

			ctx = WithLogger(ctx, requestLogger)
			r = r.WithContext(ctx)

			recorder := newResponseRecorder(w)
			start := time.Now()

			next.ServeHTTP(recorder, r)

			status := recorder.Status()
			fields := []zap.Field{
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("bytes", recorder.BytesWritten()),
			}
			switch {
			case status >= http.StatusInternalServerError:
				requestLogger.Error("request completed", fields...)
			case status >= http.StatusBadRequest:
				requestLogger.Warn("request completed", fields...)
			default:
				requestLogger.Info("request completed", fields...)
			}
		})
	}
}

// RecoveryMiddleware captures panics, logs the stack trace, and returns a
// JSON error response.
func RecoveryMiddleware(fallback *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					ctx := r.Context()
					logger := FromContext(ctx)
					if _, ok := ctx.Value(loggerKey{}).(*zap.Logger); !ok && fallback != nil {
						logger = fallback
					}
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.ByteString("stack", debug.Stack()),
					)
					httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	if r.URL != nil && r.URL.Path != "" {
		return r.URL.Path
	}
	return "/"
}

func realIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return addr
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseRecorder) WriteHeader(status int) {
	if status < 100 {
		status = http.StatusOK
	}
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

func (r *responseRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *responseRecorder) BytesWritten() int64 {
	return r.bytes
}
