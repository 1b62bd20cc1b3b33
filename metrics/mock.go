package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock records calls in memory. It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	CacheHits      map[string]int
	CacheMisses    map[string]int
	Requests       int
	Ratings        map[string]int
	Messages       int
	PremiumExpired int
}

func NewMock() *Mock {
	return &Mock{
		CacheHits:   make(map[string]int),
		CacheMisses: make(map[string]int),
		Ratings:     make(map[string]int),
	}
}

func (m *Mock) IncCacheHit(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits[namespace]++
}

func (m *Mock) IncCacheMiss(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses[namespace]++
}

func (m *Mock) ObserveHTTPRequest(method, route string, status int, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *Mock) IncRatingSubmitted(target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ratings[target]++
}

func (m *Mock) IncMessageSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages++
}

func (m *Mock) AddPremiumExpired(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PremiumExpired += n
}

func (m *Mock) Hits(namespace string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CacheHits[namespace]
}

func (m *Mock) Misses(namespace string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CacheMisses[namespace]
}
