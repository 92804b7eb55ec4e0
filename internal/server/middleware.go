package server

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"

	"tasker/internal/constants"
	"tasker/internal/logger"
	"tasker/internal/metrics"
)

// Chain applies middlewares in order. The first middleware is the outermost (runs first).
// Usage: Chain(handler, requestID, accessLog, securityHeaders)
// Request flow: requestID → accessLog → securityHeaders → handler
func Chain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	// Apply in reverse so the first middleware in the list is outermost
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// SecurityHeaders adds standard security headers to every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set(constants.HeaderCacheControl, "no-store")
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// RequestID assigns a UUID to every request and echoes it in X-Request-ID.
// A well-formed incoming X-Request-ID is preserved.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(constants.HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(constants.HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFrom returns the id set by RequestID, or "-".
func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return "-"
}

// StripTrailingSlash lets "/api/project/" reach the "/api/project" route.
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r2 := new(http.Request)
			*r2 = *r
			u := *r.URL
			u.Path = strings.TrimRight(u.Path, "/")
			if u.Path == "" {
				u.Path = "/"
			}
			u.RawPath = ""
			r2.URL = &u
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

// maxFormBody is the limit net/http applies to urlencoded bodies.
const maxFormBody = 10 << 20

// DeleteBodyForm parses a urlencoded DELETE body into r.Form and r.PostForm
// so tokens and parameters may travel in the body as with POST and PUT.
// net/http only reads bodies for POST, PUT and PATCH.
func DeleteBodyForm(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || !isFormBody(r) {
			next.ServeHTTP(w, r)
			return
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxFormBody+1))
		if err != nil || len(raw) > maxFormBody {
			WriteError(w, http.StatusBadRequest, "invalid request body: too large or unreadable", constants.ErrCodeInvalidRequest)
			return
		}
		body, err := url.ParseQuery(string(raw))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body: not a valid form encoding", constants.ErrCodeInvalidRequest)
			return
		}

		// Body values first, then the query string, like ParseForm.
		form := make(url.Values, len(body))
		for k, vs := range body {
			form[k] = append(form[k], vs...)
		}
		for k, vs := range r.URL.Query() {
			form[k] = append(form[k], vs...)
		}
		r.PostForm = body
		r.Form = form
		next.ServeHTTP(w, r)
	})
}

func isFormBody(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get(constants.HeaderContentType))
	return err == nil && ct == constants.ContentTypeForm
}

// statusRecorder captures the status code and the matched route for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
	route  string
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// routeLabel records the registered pattern on the access log recorder.
// Metric labels use the pattern, never the raw path, to keep cardinality fixed.
func routeLabel(pattern string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec, ok := w.(*statusRecorder); ok {
			rec.route = pattern
		}
		h.ServeHTTP(w, r)
	})
}

// AccessLog logs one line per request and feeds the request histogram.
// Query strings are not logged because they may carry tokens.
func AccessLog(log *logger.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, route: "unmatched"}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			elapsed := time.Since(start)
			m.ObserveRequest(r.Method, rec.route, rec.status, elapsed)
			log.Info("HTTP: %s %s %d %s ip=%s req=%s", r.Method, r.URL.Path, rec.status,
				elapsed.Round(time.Microsecond), getClientIP(r), requestIDFrom(r.Context()))
		})
	}
}

// Recover turns a handler panic into a 500 and logs the stack.
func Recover(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					log.Error("HTTP: panic serving %s %s req=%s: %v\n%s", r.Method, r.URL.Path,
						requestIDFrom(r.Context()), v, debug.Stack())
					WriteError(w, http.StatusInternalServerError, constants.MsgInternalError, constants.ErrCodeInternalError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits requests per client IP with an in-memory limiter.
// Rejected requests get 429 and count towards the rate limit metric.
func RateLimit(instance *limiter.Limiter, log *logger.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := instance.GetIPKey(r)
			lctx, err := instance.Increment(r.Context(), key, 1)
			if err != nil {
				// Fail open on limiter store errors.
				log.Warn("HTTP: rate limiter error: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				m.RateLimited()
				log.Debug("HTTP: rate limited %s %s key=%s", r.Method, r.URL.Path, key)
				WriteError(w, http.StatusTooManyRequests, constants.MsgRateLimited, constants.ErrCodeRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
