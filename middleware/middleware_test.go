package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/duynhne/classifieds-service/config"
)

func TestGetTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"traceparent", map[string]string{TraceParentHeader: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}, "4bf92f3577b34da6a3ce929d0e0e4736"},
		{"x-trace-id", map[string]string{TraceIDHeader: "abc123"}, "abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetTraceID(c))
		})
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Len(t, GetTraceID(c), 32)
}

func TestLoggingMiddleware_LogsUserAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(LoggingMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		c.Set(ContextUserID, "u1")
		assert.NotNil(t, GetLoggerFromGinContext(c))
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get(TraceIDHeader))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = NewLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestShouldSkip(t *testing.T) {
	assert.False(t, shouldTrace("/health"))
	assert.False(t, shouldTrace("/api/files/abc.png"))
	assert.True(t, shouldTrace("/api/admin/vehicles"))
	assert.False(t, shouldCollectMetrics("/metrics"))
	assert.True(t, shouldCollectMetrics("/api/upload"))
}

func TestDetectIdentity(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("POD_NAME", "classifieds-api-75c98b4b9c-kdv2n")
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=prod, service.namespace=market")

	id := detectIdentity("configured")
	assert.Equal(t, "classifieds-api", id.Name)
	assert.Equal(t, "market", id.Namespace)

	t.Setenv("OTEL_SERVICE_NAME", "from-otel")
	assert.Equal(t, "from-otel", detectIdentity("configured").Name)

	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("POD_NAME", "")
	assert.Equal(t, "configured", detectIdentity("configured").Name)
	assert.Equal(t, unknownService, detectIdentity("").Name)
}

func TestDeploymentName(t *testing.T) {
	assert.Equal(t, "", deploymentName(""))
	assert.Equal(t, "api", deploymentName("api"))
	assert.Equal(t, "api", deploymentName("api-7d9f"))
	assert.Equal(t, "api", deploymentName("api-7d9f-x2k"))
}
