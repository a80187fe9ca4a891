package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jason-s-yu/trustless-rewards/internal/auth"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoCaller() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := CallerFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(p))
	})
}

func TestCallerFromCookieAndBearer(t *testing.T) {
	require.NoError(t, auth.Init(""))
	token, err := auth.CreateJWT("ST1CALLER")
	require.NoError(t, err)
	h := Caller(echoCaller())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "ST1CALLER", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "ST1CALLER", w.Body.String())
}

func TestCallerIgnoresBadTokens(t *testing.T) {
	require.NoError(t, auth.Init(""))
	h := Caller(echoCaller())

	for _, hdr := range []string{"", "Bearer nonsense", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", hdr)
	}
}

func TestLogMiddlewareRecordsStatusAndCaller(t *testing.T) {
	require.NoError(t, auth.Init(""))
	token, _ := auth.CreateJWT("ST1CALLER")

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	h := Caller(LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	req := httptest.NewRequest(http.MethodPost, "/lobby/create", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"caller":"`+string(models.Principal("ST1CALLER"))+`"`)
	assert.Contains(t, out, `"path":"/lobby/create"`)
}
