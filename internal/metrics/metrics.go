package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Requests           *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	PostsCreated       prometheus.Counter
	PostsEdited        prometheus.Counter
	PostsDeleted       prometheus.Counter
	CommentsCreated    prometheus.Counter
	FollowRequests     prometheus.Counter
	UnfollowRequests   prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
}

// New registers the yatube collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"path", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yatube_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_posts_created_total",
			Help: "Total number of successfully created posts",
		}),
		PostsEdited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_posts_edited_total",
			Help: "Total number of successfully edited posts",
		}),
		PostsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_posts_deleted_total",
			Help: "Total number of deleted posts",
		}),
		CommentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_comments_created_total",
			Help: "Total number of successfully added comments",
		}),
		FollowRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_follows_total",
			Help: "Total number of follow requests that created an edge",
		}),
		UnfollowRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_unfollows_total",
			Help: "Total number of unfollow requests that removed an edge",
		}),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_form_validation_failures_total",
				Help: "Total number of rejected form submissions",
			},
			[]string{"form"},
		),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_page_cache_hits_total",
			Help: "Total number of pages served from the page cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_page_cache_misses_total",
			Help: "Total number of page cache misses",
		}),
	}

	m.registry.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.PostsCreated,
		m.PostsEdited,
		m.PostsDeleted,
		m.CommentsCreated,
		m.FollowRequests,
		m.UnfollowRequests,
		m.ValidationFailures,
		m.CacheHits,
		m.CacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
