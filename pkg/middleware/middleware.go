package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequireClaims guards routes that change server state, such as POST
// /refresh. It runs after jwtauth.Verifier: a missing or invalid token is
// answered with 401, a valid token lacking any of required with 403.
func RequireClaims(ja *jwtauth.JWTAuth, required []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := Logger(r.Context())

			token, claims, err := jwtauth.FromContext(r.Context())
			if err == nil && token == nil {
				err = jwtauth.ErrNoTokenFound
			}
			if err == nil {
				err = jwt.Validate(token, ja.ValidateOptions()...)
			}
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected request without a valid token")
				deny(w, r, http.StatusUnauthorized, "invalid or missing token")
				return
			}

			var missing []string
			for _, claim := range required {
				if _, ok := claims[claim]; !ok {
					missing = append(missing, claim)
				}
			}
			if len(missing) > 0 {
				logger.Warn().Str("subject", token.Subject()).Strs("missing_claims", missing).Msg("Rejected token without required claims")
				deny(w, r, http.StatusForbidden, "token lacks required claims: "+strings.Join(missing, ", "))
				return
			}

			logger.Debug().Str("subject", token.Subject()).Str("path", r.URL.Path).Msg("Token accepted")
			next.ServeHTTP(w, r)
		})
	}
}

type denial struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func deny(w http.ResponseWriter, r *http.Request, code int, reason string) {
	render.Status(r, code)
	render.JSON(w, r, denial{Status: http.StatusText(code), Error: reason})
}

type contextKey string

const LoggerKey contextKey = "logger"

// RequestLogger adds a per-request sublogger to the context and logs one line
// per request when it completes.
func RequestLogger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sublogger := logger.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("request_uri", r.RequestURI).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Str("method", r.Method).
				Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(context.WithValue(r.Context(), LoggerKey, &sublogger))

			defer func() {
				sublogger.Info().
					Str("status", http.StatusText(ww.Status())).
					Int("status_code", ww.Status()).
					Int64("bytes_in", r.ContentLength).
					Int("bytes_out", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("Request")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// Logger returns the request sublogger, or the global logger outside a
// RequestLogger chain.
func Logger(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	return &log.Logger
}
