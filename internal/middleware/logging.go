package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// SlowRequest is the duration above which a request is logged as a warning.
const SlowRequest = 2 * time.Second

func Logging(log logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			afterRequestLogging(log, start, r, sw.status)
		})
	}
}

func afterRequestLogging(log logrus.FieldLogger, start time.Time, r *http.Request, status int) {
	duration := time.Since(start)
	entry := log.WithFields(logrus.Fields{
		"method":    r.Method,
		"path":      r.URL.Path,
		"duration":  duration,
		"remote_ip": r.RemoteAddr,
		"status":    status,
	})
	if duration > SlowRequest {
		entry.Warn("Slow request detected")
		return
	}
	entry.Info("Request completed")
}

// statusWriter captures the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
