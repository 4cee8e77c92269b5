package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       1,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Skipping rate limiter tests: redis connection failed: %v", err)
	}

	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	return rdb
}

func setupRateLimitedRouter(rdb *redis.Client, limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiterMiddleware(rdb, limit, window))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestRateLimiterMiddleware_Integration(t *testing.T) {
	rdb := setupTestRedis(t)
	defer rdb.Close()

	t.Run("Allows requests under the limit", func(t *testing.T) {
		router := setupRateLimitedRouter(rdb, 3, time.Minute)

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("Rejects requests over the limit", func(t *testing.T) {
		require.NoError(t, rdb.FlushDB(context.Background()).Err())
		router := setupRateLimitedRouter(rdb, 2, time.Minute)

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
			router.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("Window expiry resets the counter", func(t *testing.T) {
		require.NoError(t, rdb.FlushDB(context.Background()).Err())
		router := setupRateLimitedRouter(rdb, 1, time.Second)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusTooManyRequests, w.Code)

		time.Sleep(1100 * time.Millisecond)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
