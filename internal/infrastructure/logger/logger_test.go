package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("creates logger with defaults", func(t *testing.T) {
		l, err := New(DefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, l)
	})

	t.Run("creates json logger for production", func(t *testing.T) {
		l, err := NewForEnvironment("production")
		require.NoError(t, err)
		require.NotNil(t, l)
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestContextLoggerRoundTrip(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := context.Background()
	ctx, enriched := WithRequestID(ctx, base, "req-123")
	ctx, enriched = WithTeamID(ctx, enriched, "team-1")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Equal(t, "team-1", GetTeamID(ctx))
	assert.Equal(t, "", GetUserID(ctx))

	enriched.Info("hello")
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "team-1", fields["team_id"])
}

func TestFromContext_MissingLoggerIsNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	// Should not panic
	l.Info("ignored")
}

func TestL_InjectsContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithContext(context.Background(), base)
	ctx = context.WithValue(ctx, UserIDKey, "user-9")

	L(ctx).Info("did something")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "user-9", logs.All()[0].ContextMap()["user_id"])
}

func TestGinMiddleware_LogsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	router := gin.New()
	router.Use(GinMiddleware(base))
	router.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, int64(http.StatusOK), entry.ContextMap()["status"])
}

func TestRecovery_LogsPanicAndReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)
	base := zap.New(core)

	router := gin.New()
	router.Use(Recovery(base))
	router.GET("/boom", func(*gin.Context) {
		panic("kaput")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
}
