package testutil

import (
	"sync"
	"time"
	"wikistats/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu               sync.Mutex
	Requests         int
	CacheHits        int
	CacheMisses      int
	DiskCacheHits    int
	DiskCacheMisses  int
	UpstreamRequests int
	UpstreamRetries  int
	RateLimited      int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) IncDiskCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DiskCacheHits++
}

func (m *MockMetrics) IncDiskCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DiskCacheMisses++
}

func (m *MockMetrics) IncUpstreamRequests(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpstreamRequests++
}

func (m *MockMetrics) IncUpstreamRetries(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpstreamRetries++
}

func (m *MockMetrics) IncUpstreamRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RateLimited++
}

func (m *MockMetrics) ObserveUpstreamDuration(_ string, _ time.Duration) {}
