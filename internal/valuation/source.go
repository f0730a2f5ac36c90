package valuation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type fetcher interface {
	ExportValues(ctx context.Context, productID string) (map[string]float64, error)
}

// Source answers valuation lookups for round resolution. It caches per-product
// export data for the process lifetime and degrades to biased-random fallback
// values when the upstream API misbehaves, so a lookup never fails and never
// blocks past the configured timeout.
type Source struct {
	client  fetcher
	timeout time.Duration
	logger  zerolog.Logger

	mu    sync.RWMutex
	cache map[string]map[string]float64

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewSource(client fetcher, timeout time.Duration, logger zerolog.Logger) *Source {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Source{
		client:  client,
		timeout: timeout,
		logger:  logger.With().Str("component", "valuation").Logger(),
		cache:   make(map[string]map[string]float64),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ProductValues returns export values for every country for one product.
// The map is cached after the first resolution, fallback values included,
// so repeated lookups within a match stay consistent.
func (s *Source) ProductValues(ctx context.Context, productID string) map[string]float64 {
	s.mu.RLock()
	cached, ok := s.cache[productID]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	values, err := s.client.ExportValues(fetchCtx, productID)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_id", productID).Msg("export fetch failed, using fallback values")
		values = s.fallback(productID)
	}

	s.mu.Lock()
	// Another goroutine may have raced the fetch; first writer wins so both
	// see identical values.
	if existing, ok := s.cache[productID]; ok {
		values = existing
	} else {
		s.cache[productID] = values
	}
	s.mu.Unlock()

	return values
}

// Valuation returns the export value of a single country for a product, or 0
// when the country has no recorded value.
func (s *Source) Valuation(ctx context.Context, countryID, productID string) float64 {
	return s.ProductValues(ctx, productID)[countryID]
}

// Preload warms the cache for the products of a starting match.
func (s *Source) Preload(ctx context.Context, productIDs []string) {
	for _, id := range productIDs {
		s.ProductValues(ctx, id)
	}
}

// fallback synthesizes plausible values: known strong exporters of the
// product land in [10,100) billions, everyone else in [0.1,15).
func (s *Source) fallback(productID string) map[string]float64 {
	strong := strongExporters[productID]
	if strong == nil {
		strong = defaultStrongExporters
	}
	isStrong := make(map[string]bool, len(strong))
	for _, id := range strong {
		isStrong[id] = true
	}

	s.rndMu.Lock()
	defer s.rndMu.Unlock()

	values := make(map[string]float64, len(Countries))
	for _, country := range Countries {
		if isStrong[country.ID] {
			values[country.ID] = 10.0 + s.rnd.Float64()*90.0
		} else {
			values[country.ID] = 0.1 + s.rnd.Float64()*14.9
		}
	}
	return values
}
