package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(ja *jwtauth.JWTAuth, claims []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(ja))
	r.Use(RequireClaims(ja, claims))
	r.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func token(t *testing.T, ja *jwtauth.JWTAuth, claims map[string]interface{}) string {
	_, s, err := ja.Encode(claims)
	require.NoError(t, err)
	return s
}

func TestRequireClaims(t *testing.T) {
	ja := jwtauth.New("HS256", []byte("secret"), nil)
	h := protected(ja, []string{"sub", "iss"})
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		header string
		want   int
		body   string
	}{
		{"no token", "", http.StatusUnauthorized, "invalid or missing token"},
		{"all claims", "Bearer " + token(t, ja, map[string]interface{}{"sub": "ops", "iss": "fleet", "exp": exp}), http.StatusNoContent, ""},
		{"missing claim", "Bearer " + token(t, ja, map[string]interface{}{"sub": "ops", "exp": exp}), http.StatusForbidden, "token lacks required claims: iss"},
		{"expired", "Bearer " + token(t, ja, map[string]interface{}{"sub": "ops", "iss": "fleet", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized, "invalid or missing token"},
		{"wrong key", "Bearer " + token(t, jwtauth.New("HS256", []byte("other"), nil), map[string]interface{}{"sub": "ops", "iss": "fleet"}), http.StatusUnauthorized, "invalid or missing token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.body != "" {
				var got map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, tt.body, got["error"])
				assert.Equal(t, http.StatusText(tt.want), got["status"])
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var inner *zerolog.Logger
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = Logger(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hosts?chassis=r640", nil))

	require.NotNil(t, inner)
	assert.Contains(t, buf.String(), `"status_code":418`)
	assert.Contains(t, buf.String(), `"request_uri":"/hosts?chassis=r640"`)
	assert.Contains(t, buf.String(), `"message":"Request"`)
}

func TestLoggerFallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, Logger(context.Background()))
}
