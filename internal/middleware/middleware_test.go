package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/news-publishing-api/internal/metrics"
	"github.com/news-publishing-api/internal/middleware"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetRequestID(c))
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(middleware.RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps the client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(middleware.RequestIDHeader, "client-id-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "client-id-123", w.Header().Get(middleware.RequestIDHeader))
	})
}

func TestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Metrics())
	router.POST("/v1/articles", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues("POST", "/v1/articles", "201")
	before := testutil.ToFloat64(counter)
	inFlight := testutil.ToFloat64(metrics.HTTPRequestsInFlight)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/articles", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Equal(t, inFlight, testutil.ToFloat64(metrics.HTTPRequestsInFlight))
}

func authRouter(auth *middleware.Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Authenticate(auth))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetActor(c).UserID)
	})
	router.POST("/private", middleware.RequireActor(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func do(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	auth := middleware.NewAuthenticator("test-secret", "news-idp")
	router := authRouter(auth)

	token, err := auth.Sign("user-42", time.Hour)
	require.NoError(t, err)

	t.Run("anonymous", func(t *testing.T) {
		w := do(router, http.MethodGet, "/whoami", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())

		assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodPost, "/private", "").Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := do(router, http.MethodGet, "/whoami", token)
		assert.Equal(t, "user-42", w.Body.String())
		assert.Equal(t, http.StatusNoContent, do(router, http.MethodPost, "/private", token).Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := auth.Sign("user-42", -time.Minute)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/whoami", expired).Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged, err := middleware.NewAuthenticator("other-secret", "news-idp").Sign("user-42", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/whoami", forged).Code)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		foreign, err := middleware.NewAuthenticator("test-secret", "elsewhere").Sign("user-42", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/whoami", foreign).Code)
	})

	t.Run("unsigned token", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-42"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/whoami", none).Code)
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
