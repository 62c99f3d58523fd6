package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware(t *testing.T) {
	hash, err := HashAPIKey("secret-key")
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware(hash, zap.NewNop()))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret-key", http.StatusUnauthorized},
		{"empty key", "Bearer   ", http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"valid key", "Bearer secret-key", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestAuthMiddlewareDisabledWithoutHash(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware("", zap.NewNop()))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, given)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, given, w.Body.String())
}

func idempotentRouter(calls *int32, status int) *gin.Engine {
	router := gin.New()
	router.Use(IdempotencyMiddleware(NewIdempotencyStore(time.Minute), zap.NewNop()))
	router.POST("/transfer", func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		c.JSON(status, gin.H{"call": n})
	})
	return router
}

func post(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysResponse(t *testing.T) {
	var calls int32
	router := idempotentRouter(&calls, http.StatusOK)

	first := post(router, "k1", `{"q":1}`)
	second := post(router, "k1", `{"q":1}`)

	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyConflictOnDifferentPayload(t *testing.T) {
	var calls int32
	router := idempotentRouter(&calls, http.StatusOK)

	post(router, "k1", `{"q":1}`)
	w := post(router, "k1", `{"q":2}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyForgetsServerErrors(t *testing.T) {
	var calls int32
	router := idempotentRouter(&calls, http.StatusBadGateway)

	post(router, "k1", `{"q":1}`)
	post(router, "k1", `{"q":1}`)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasedKeyIsRetried(t *testing.T) {
	var calls int32
	router := gin.New()
	router.Use(IdempotencyMiddleware(NewIdempotencyStore(time.Minute), zap.NewNop()))
	router.POST("/transfer", func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			c.Set(ReleaseKey, true)
			c.JSON(http.StatusConflict, gin.H{"status": "rolled_back"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "committed"})
	})

	first := post(router, "k1", `{"q":1}`)
	second := post(router, "k1", `{"q":1}`)
	third := post(router, "k1", `{"q":1}`)

	assert.Equal(t, http.StatusConflict, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "true", third.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyWithoutKey(t *testing.T) {
	var calls int32
	router := idempotentRouter(&calls, http.StatusOK)

	post(router, "", `{"q":1}`)
	post(router, "", `{"q":1}`)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
