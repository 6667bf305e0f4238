package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesIsolatedRegistries(t *testing.T) {
	a := New()
	b := New()

	a.PostsCreated.Inc()
	a.ValidationFailures.WithLabelValues("post").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.PostsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PostsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ValidationFailures.WithLabelValues("post")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Requests.WithLabelValues("/", "GET", "200").Inc()
	m.CacheHits.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `yatube_http_requests_total{method="GET",path="/",status="200"} 1`)
	assert.Contains(t, string(body), "yatube_page_cache_hits_total 1")
}
