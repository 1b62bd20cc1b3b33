package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

type Service struct {
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	RatingsSubmitted *prometheus.CounterVec
	MessagesSent     prometheus.Counter
	PremiumExpired   prometheus.Counter
}

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus collectors.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetbasket_cache_hits_total",
			Help: "Read-through cache hits by key namespace.",
		}, []string{"namespace"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetbasket_cache_misses_total",
			Help: "Read-through cache misses by key namespace.",
		}, []string{"namespace"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetbasket_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meetbasket_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		RatingsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetbasket_ratings_submitted_total",
			Help: "Rating upserts by target kind.",
		}, []string{"target"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meetbasket_messages_sent_total",
			Help: "Direct messages sent.",
		}),
		PremiumExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meetbasket_premium_expired_total",
			Help: "Premium memberships cleared by the expiry scheduler.",
		}),
	}

	reg.MustRegister(
		s.CacheHits,
		s.CacheMisses,
		s.HTTPRequests,
		s.HTTPDuration,
		s.RatingsSubmitted,
		s.MessagesSent,
		s.PremiumExpired,
	)

	return s
}

func (s *Service) IncCacheHit(namespace string) {
	s.CacheHits.WithLabelValues(namespace).Inc()
}

func (s *Service) IncCacheMiss(namespace string) {
	s.CacheMisses.WithLabelValues(namespace).Inc()
}

func (s *Service) ObserveHTTPRequest(method, route string, status int, seconds float64) {
	s.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	s.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

func (s *Service) IncRatingSubmitted(target string) {
	s.RatingsSubmitted.WithLabelValues(target).Inc()
}

func (s *Service) IncMessageSent() {
	s.MessagesSent.Inc()
}

func (s *Service) AddPremiumExpired(n int) {
	if n > 0 {
		s.PremiumExpired.Add(float64(n))
	}
}
