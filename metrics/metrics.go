// Package metrics collects Prometheus metrics for authentication outcomes
// and HTTP responses and exposes them on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the auth counters.
const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid_credentials"
	OutcomeError     = "error"
)

// Recorder is the interface the auth layer reports to.
type Recorder interface {
	RecordSignup(outcome string)
	RecordLogin(outcome string)
	RecordTokenRejected(reason string)
	RecordHashDuration(d time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	signups       *prometheus.CounterVec
	logins        *prometheus.CounterVec
	tokenRejected *prometheus.CounterVec
	hashDuration  prometheus.Histogram
	httpStatus    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expenses_signups_total",
			Help: "Signup attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expenses_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		tokenRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expenses_token_rejections_total",
			Help: "Bearer tokens rejected by the auth middleware, by reason.",
		}, []string{"reason"}),
		hashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "expenses_password_hash_seconds",
			Help:    "Time spent hashing or comparing passwords, including queueing.",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expenses_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(c.signups, c.logins, c.tokenRejected, c.hashDuration, c.httpStatus)
	return c
}

// RecordSignup counts a signup attempt.
func (c *Collector) RecordSignup(outcome string) {
	c.signups.WithLabelValues(outcome).Inc()
}

// RecordLogin counts a login attempt.
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordTokenRejected counts a rejected bearer token.
func (c *Collector) RecordTokenRejected(reason string) {
	c.tokenRejected.WithLabelValues(reason).Inc()
}

// RecordHashDuration observes one bcrypt operation.
func (c *Collector) RecordHashDuration(d time.Duration) {
	c.hashDuration.Observe(d.Seconds())
}

// RecordHTTPStatus counts a response status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop discards everything. Used when metrics are not wired, e.g. in tests.
type Nop struct{}

func (Nop) RecordSignup(string)              {}
func (Nop) RecordLogin(string)               {}
func (Nop) RecordTokenRejected(string)       {}
func (Nop) RecordHashDuration(time.Duration) {}
func (Nop) RecordHTTPStatus(int)             {}

// OrNop returns rec, or Nop when rec is nil.
func OrNop(rec Recorder) Recorder {
	if rec == nil {
		return Nop{}
	}
	return rec
}

// Handler returns the HTTP handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Middleware records the status code of every response.
func Middleware(rec Recorder) func(next http.Handler) http.Handler {
	rec = OrNop(rec)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.RecordHTTPStatus(status)
		})
	}
}
