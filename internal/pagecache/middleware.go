package pagecache

import (
	"bytes"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// KeyFunc derives the cache key of a request.
type KeyFunc func(r *http.Request) string

// Middleware serves GET requests from a Cache and stores successful renders.
type Middleware struct {
	cache  Cache
	ttl    time.Duration
	key    KeyFunc
	log    logrus.FieldLogger
	hits   prometheus.Counter
	misses prometheus.Counter
}

func NewMiddleware(c Cache, ttl time.Duration, key KeyFunc, log logrus.FieldLogger) *Middleware {
	if key == nil {
		key = func(r *http.Request) string { return r.URL.RequestURI() }
	}
	return &Middleware{cache: c, ttl: ttl, key: key, log: log}
}

// WithCounters makes the middleware count hits and misses.
func (m *Middleware) WithCounters(hits, misses prometheus.Counter) *Middleware {
	m.hits, m.misses = hits, misses
	return m
}

func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := m.key(r)
		body, ok, err := m.cache.Get(r.Context(), key)
		if err != nil {
			m.log.WithError(err).WithField("key", key).Warn("Page cache read failed")
		}
		if ok {
			inc(m.hits)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("X-Page-Cache", "HIT")
			_, _ = w.Write(body)
			return
		}
		inc(m.misses)

		w.Header().Set("X-Page-Cache", "MISS")
		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status != http.StatusOK {
			return
		}
		if err := m.cache.Set(r.Context(), key, rec.buf.Bytes(), m.ttl); err != nil {
			m.log.WithError(err).WithField("key", key).Warn("Page cache write failed")
		}
	})
}

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// recorder passes the response through while keeping a copy of the body.
type recorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}
