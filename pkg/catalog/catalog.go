package catalog

import (
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Catalog is a read-only lookup of metric certification metadata.
// A miss is reported as ok == false, never as an error.
type Catalog interface {
	// Get returns the definition for a metric identifier.
	Get(id string) (*MetricDefinition, bool)

	// AllowedDecisions returns the decision classes a metric is certified for.
	AllowedDecisions(id string) ([]DecisionType, bool)

	// List returns every definition sorted by identifier.
	List() []*MetricDefinition
}

// NormalizeID lowercases a metric identifier and strips all whitespace.
func NormalizeID(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, id)
}

// MemoryCatalog is a thread-safe in-memory Catalog.
// Definitions are copied on the way in and on the way out.
type MemoryCatalog struct {
	mu      sync.RWMutex
	metrics map[string]*MetricDefinition
}

// NewMemoryCatalog creates a catalog holding the given definitions.
// Later definitions win when two normalize to the same identifier.
func NewMemoryCatalog(defs []*MetricDefinition) *MemoryCatalog {
	c := &MemoryCatalog{}
	c.Replace(defs)
	return c
}

// NewDefaultCatalog creates a catalog seeded with the built-in registry.
func NewDefaultCatalog() *MemoryCatalog {
	return NewMemoryCatalog(DefaultDefinitions())
}

// Get implements Catalog.
func (c *MemoryCatalog) Get(id string) (*MetricDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.metrics[NormalizeID(id)]
	if !ok {
		return nil, false
	}
	return def.Clone(), true
}

// AllowedDecisions implements Catalog.
func (c *MemoryCatalog) AllowedDecisions(id string) ([]DecisionType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.metrics[NormalizeID(id)]
	if !ok {
		return nil, false
	}
	return append([]DecisionType(nil), def.AllowedDecisions...), true
}

// List implements Catalog.
func (c *MemoryCatalog) List() []*MetricDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*MetricDefinition, 0, len(c.metrics))
	for _, def := range c.metrics {
		out = append(out, def.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of metrics in the catalog.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.metrics)
}

// Replace atomically swaps the catalog contents.
func (c *MemoryCatalog) Replace(defs []*MetricDefinition) {
	metrics := make(map[string]*MetricDefinition, len(defs))
	for _, def := range defs {
		if def == nil {
			continue
		}
		clone := def.Clone()
		clone.ID = NormalizeID(clone.ID)
		metrics[clone.ID] = clone
	}

	c.mu.Lock()
	c.metrics = metrics
	c.mu.Unlock()
}
