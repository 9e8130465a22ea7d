package dictionary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Config holds the locations of the backend files
type Config struct {
	SQLPath  string // SQLite structured store
	JSONPath string // JSON flat map
	Breaker  bool   // wrap backends in a circuit breaker
}

// Gateway opens each backend on first use and reuses it afterwards
type Gateway struct {
	config Config
	logger *slog.Logger

	mu       sync.Mutex
	backends map[Kind]Backend
}

// NewGateway creates a gateway; no backend is opened until requested
func NewGateway(config Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:   config,
		logger:   logger,
		backends: make(map[Kind]Backend),
	}
}

// Register installs an already constructed backend under kind
func (g *Gateway) Register(kind Kind, b Backend) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.backends[kind] = g.wrap(b)
}

// Backend returns the backend for kind, opening it exactly once
func (g *Gateway) Backend(ctx context.Context, kind Kind) (Backend, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.backends[kind]; ok {
		return b, nil
	}

	var (
		b   Backend
		err error
	)
	switch kind {
	case KindSQL:
		b, err = OpenSQLStore(ctx, g.config.SQLPath, g.logger)
	case KindJSON:
		b = NewFlatMap(g.config.JSONPath, g.logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
	if err != nil {
		return nil, err
	}

	b = g.wrap(b)
	g.backends[kind] = b
	return b, nil
}

func (g *Gateway) wrap(b Backend) Backend {
	if !g.config.Breaker {
		return b
	}
	return WithBreaker(b)
}

// Close closes every opened backend
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	for kind, b := range g.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s backend: %w", kind, err))
		}
		delete(g.backends, kind)
	}
	return errors.Join(errs...)
}
