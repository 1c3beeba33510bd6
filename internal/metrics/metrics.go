// Package metrics collects Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes recorded by RecordLogin.
const (
	LoginSuccess         = "success"
	LoginUnknownEmail    = "unknown_email"
	LoginWrongPassword   = "wrong_password"
	LoginError           = "error"
	LoginProviderGoogle  = "google"
	LoginProviderLocal   = "local"
	FollowActionFollow   = "follow"
	FollowActionUnfollow = "unfollow"
)

// Collector holds every metric the service exports.
type Collector struct {
	signups      *prometheus.CounterVec
	logins       *prometheus.CounterVec
	follows      *prometheus.CounterVec
	posts        prometheus.Counter
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devcircle_signups_total",
			Help: "Accounts created, by provider.",
		}, []string{"provider"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devcircle_logins_total",
			Help: "Login attempts, by provider and outcome.",
		}, []string{"provider", "result"}),
		follows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devcircle_follow_mutations_total",
			Help: "Follow graph mutations, by action and outcome.",
		}, []string{"action", "result"}),
		posts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devcircle_posts_created_total",
			Help: "Posts created.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devcircle_http_requests_total",
			Help: "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devcircle_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.signups,
		c.logins,
		c.follows,
		c.posts,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordSignup(provider string) {
	c.signups.WithLabelValues(provider).Inc()
}

func (c *Collector) RecordLogin(provider, result string) {
	c.logins.WithLabelValues(provider, result).Inc()
}

// RecordFollow records a follow or unfollow attempt.
func (c *Collector) RecordFollow(action string, ok bool) {
	result := "success"
	if !ok {
		result = "error"
	}
	c.follows.WithLabelValues(action, result).Inc()
}

func (c *Collector) RecordPostCreated() {
	c.posts.Inc()
}

// RecordHTTPRequest records one served request. route is the matched route pattern, not the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
