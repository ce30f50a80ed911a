package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Instrument())
	r.GET("/employees/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/employees/a", "/employees/b", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.total.WithLabelValues("GET", "/employees/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}
