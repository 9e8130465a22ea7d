package dictionary

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/engipa/internal/phoneme"
)

// breakerBackend stops hitting a failing backend for a while after
// repeated errors
type breakerBackend struct {
	Backend
	cb *gobreaker.CircuitBreaker
}

// WithBreaker wraps b in a circuit breaker that opens after five
// consecutive failures and probes again after thirty seconds
func WithBreaker(b Backend) Backend {
	if _, ok := b.(*breakerBackend); ok {
		return b
	}
	settings := gobreaker.Settings{
		Name:        "dictionary-" + b.Name(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &breakerBackend{Backend: b, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerBackend) LookupMany(ctx context.Context, keys []string) (map[string][]phoneme.Entry, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.Backend.LookupMany(ctx, keys)
	})
	if err != nil {
		return nil, err
	}
	return res.(map[string][]phoneme.Entry), nil
}

func (b *breakerBackend) SuffixSearch(ctx context.Context, suffix phoneme.Entry, excludeKey, excludeFull string) ([]string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.Backend.SuffixSearch(ctx, suffix, excludeKey, excludeFull)
	})
	if err != nil {
		return nil, err
	}
	return res.([]string), nil
}

func (b *breakerBackend) ContainsIPA(ctx context.Context, fragment string) ([]IPAMatch, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.Backend.ContainsIPA(ctx, fragment)
	})
	if err != nil {
		return nil, err
	}
	return res.([]IPAMatch), nil
}
