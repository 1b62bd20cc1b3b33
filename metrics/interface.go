package metrics

// Metrics collects application metrics without tying callers to Prometheus.
type Metrics interface {
	IncCacheHit(namespace string)
	IncCacheMiss(namespace string)
	ObserveHTTPRequest(method, route string, status int, seconds float64)
	IncRatingSubmitted(target string)
	IncMessageSent()
	AddPremiumExpired(n int)
}
