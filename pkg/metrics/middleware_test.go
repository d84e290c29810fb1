package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/reviews/:review_id/reaction", normalizePath("/reviews/:review_id/reaction", "/reviews/3b1f/reaction"))
	assert.Equal(t, "unmatched", normalizePath("", "/nope"))
	assert.Equal(t, "unknown", normalizePath("", ""))
}

func TestGinPrometheusMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("metrics-test"))
	router.GET("/reviews/:review_id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/reviews/"+id, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	count := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("metrics-test", http.MethodGet, "/reviews/:review_id", "200"))
	assert.Equal(t, float64(3), count)
}

func TestGinPrometheusMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("metrics-skip-test"))
	router.GET("/metrics", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	count := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("metrics-skip-test", http.MethodGet, "/metrics", "200"))
	assert.Equal(t, float64(0), count)
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(ReviewSubmissions.WithLabelValues("ratedSuccessfully"))
	RecordSubmission("ratedSuccessfully")
	assert.Equal(t, before+1, testutil.ToFloat64(ReviewSubmissions.WithLabelValues("ratedSuccessfully")))

	beforeTx := testutil.ToFloat64(ReviewTransactions.WithLabelValues("rolled_back"))
	RecordTransaction(false)
	assert.Equal(t, beforeTx+1, testutil.ToFloat64(ReviewTransactions.WithLabelValues("rolled_back")))

	beforeDrift := testutil.ToFloat64(AggregateDrift.WithLabelValues("true"))
	RecordAggregateDrift(true)
	assert.Equal(t, beforeDrift+1, testutil.ToFloat64(AggregateDrift.WithLabelValues("true")))
}
