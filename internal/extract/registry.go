package extract

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

// ErrUnknownStrategy is returned when no extractor is registered for a source.
var ErrUnknownStrategy = errors.New("unknown extraction strategy")

// Registry maps strategy names to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// NewDefaultRegistry returns a Registry holding the built-in strategies.
func NewDefaultRegistry(clock event.Clock, logger *zap.Logger) *Registry {
	r := NewRegistry()
	for _, s := range BuiltinStrategies() {
		r.Register(s.Name, NewLayoutExtractor(s, clock, logger))
	}
	return r
}

// Register adds or replaces the extractor for name. Names are case-insensitive.
func (r *Registry) Register(name string, x Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[strings.ToLower(name)] = x
}

// For returns the extractor named by src.Strategy, or by src.Name when no
// strategy is configured.
func (r *Registry) For(src event.Source) (Extractor, error) {
	name := src.Strategy
	if name == "" {
		name = src.Name
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	x, ok := r.extractors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return x, nil
}

// Names lists registered strategy names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	return names
}
