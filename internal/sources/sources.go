// Package sources defines the connector contract for pulling raw items out of
// upstream systems, and the registry the pipeline fans out over. Connectors
// report unavailability and fetch failure through the service error markers so
// one broken source never aborts a run.
package sources

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"daybrief/internal/brief"
)

// RawItem is one unparsed record from a connector. Fields carries the
// source's own field names; normalization maps them onto the canonical item.
type RawItem struct {
	Type   string
	Fields map[string]any
}

// FetchRequest bounds what a connector should return.
type FetchRequest struct {
	Since time.Time
	Limit int
	Prefs brief.Preferences
}

// Connector pulls raw items from one upstream system. Fetch must honor the
// context and should wrap failures with services.ErrSourceUnavailable or
// services.ErrSourceFetch so the orchestrator can classify them.
type Connector interface {
	Name() string
	Fetch(ctx context.Context, req FetchRequest) ([]RawItem, error)
}

// Registry holds the configured connectors for one process.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry returns an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds a connector, rejecting duplicate names.
func (r *Registry) Register(connector Connector) error {
	if connector == nil {
		return fmt.Errorf("connector is nil")
	}
	name := connector.Name()
	if name == "" {
		return fmt.Errorf("connector has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.connectors[name]; exists {
		return fmt.Errorf("connector %q already registered", name)
	}
	r.connectors[name] = connector
	return nil
}

// Get returns the named connector, or nil if unregistered.
func (r *Registry) Get(name string) Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connectors[name]
}

// Names lists registered connector names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
