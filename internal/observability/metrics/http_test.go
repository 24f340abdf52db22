package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestGinMiddlewarePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, err := NewHTTPMetrics(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)

	for _, hm := range []*HTTPMetrics{nil, m} {
		engine := gin.New()
		engine.Use(GinMiddleware(hm))
		engine.GET("/payments/:transactionId/verify", func(c *gin.Context) {
			c.Status(http.StatusAccepted)
		})

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/900001/verify", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
}

func TestRouteLabel(t *testing.T) {
	require.Equal(t, "unmatched", routeLabel(""))
	require.Equal(t, "/payments", routeLabel("/payments"))
}
