package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mwMockMetrics struct {
	requestEndpoint string
	requestStatus   int
	requestCalls    int
	durationCalls   int
}

func (m *mwMockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.requestEndpoint = endpoint
	m.requestStatus = status
	m.requestCalls++
}
func (m *mwMockMetrics) ObserveRequestDuration(_ string, _ time.Duration) { m.durationCalls++ }
func (m *mwMockMetrics) IncCacheHits()                                    {}
func (m *mwMockMetrics) IncCacheMisses()                                  {}
func (m *mwMockMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (m *mwMockMetrics) IncCodesGenerated()                               {}
func (m *mwMockMetrics) IncScans(_ string)                                {}

type mwMockLogger struct {
	cacheTestLogger
	infoType  TypeEnum
	infoCalls int
}

func (m *mwMockLogger) Infof(t TypeEnum, _ string, _ ...interface{}) {
	m.infoType = t
	m.infoCalls++
}

func TestMetricsMiddleware_CapturesStatusAndEndpoint(t *testing.T) {
	metrics := &mwMockMetrics{}
	logger := &mwMockLogger{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mw := MetricsMiddleware(metrics, logger, handler)

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	assert.Equal(t, 1, metrics.requestCalls)
	assert.Equal(t, "/generate", metrics.requestEndpoint)
	assert.Equal(t, http.StatusCreated, metrics.requestStatus)
	assert.Equal(t, 1, metrics.durationCalls)

	// Access log goes to the POST channel
	assert.Equal(t, 1, logger.infoCalls)
	assert.Equal(t, TypeEnum(TypePost), logger.infoType)
}

func TestMetricsMiddleware_DefaultStatus200(t *testing.T) {
	metrics := &mwMockMetrics{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mw := MetricsMiddleware(metrics, &mwMockLogger{}, handler)

	req := httptest.NewRequest(http.MethodGet, "/code", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, metrics.requestStatus)
}

func TestStatusWriter_WriteHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	sw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, sw.status)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
