package valuation

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubFetcher struct {
	mu     sync.Mutex
	calls  int
	values map[string]float64
	err    error
}

func (s *stubFetcher) ExportValues(_ context.Context, productID string) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.values, nil
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestProductValuesCachesFetch(t *testing.T) {
	fetch := &stubFetcher{values: map[string]float64{"aschn": 42.5, "nausa": 12.1}}
	source := NewSource(fetch, time.Second, zerolog.New(io.Discard))

	first := source.ProductValues(context.Background(), "168542")
	second := source.ProductValues(context.Background(), "168542")

	assert.Equal(t, 1, fetch.callCount(), "second lookup should hit the cache")
	assert.Equal(t, first, second)
	assert.Equal(t, 42.5, source.Valuation(context.Background(), "aschn", "168542"))
}

func TestProductValuesFallsBackOnError(t *testing.T) {
	fetch := &stubFetcher{err: errors.New("upstream down")}
	source := NewSource(fetch, time.Second, zerolog.New(io.Discard))

	values := source.ProductValues(context.Background(), "52709")

	assert.Len(t, values, len(Countries), "fallback covers every country")
	for _, id := range []string{"sabra", "eurus", "nausa"} {
		assert.GreaterOrEqual(t, values[id], 10.0, "strong exporter %s gets the high band", id)
		assert.Less(t, values[id], 100.0)
	}
	assert.GreaterOrEqual(t, values["euirl"], 0.1)
	assert.Less(t, values["euirl"], 15.0)
}

func TestFallbackValuesStayConsistent(t *testing.T) {
	fetch := &stubFetcher{err: errors.New("upstream down")}
	source := NewSource(fetch, time.Second, zerolog.New(io.Discard))

	first := source.Valuation(context.Background(), "asjpn", "42204")
	second := source.Valuation(context.Background(), "asjpn", "42204")

	assert.Equal(t, first, second, "fallback values are cached per product")
	assert.Equal(t, 1, fetch.callCount())
}

func TestFallbackUnknownProductUsesDefaultExporters(t *testing.T) {
	fetch := &stubFetcher{err: errors.New("upstream down")}
	source := NewSource(fetch, time.Second, zerolog.New(io.Discard))

	values := source.ProductValues(context.Background(), "10406")

	for _, id := range defaultStrongExporters {
		assert.GreaterOrEqual(t, values[id], 10.0)
	}
}

func TestValuationUnknownCountryIsZero(t *testing.T) {
	fetch := &stubFetcher{values: map[string]float64{"aschn": 1}}
	source := NewSource(fetch, time.Second, zerolog.New(io.Discard))

	assert.Zero(t, source.Valuation(context.Background(), "zzunknown", "52709"))
}
