package pubsub

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// BrokerInfo provides debug information about a registered broker.
type BrokerInfo interface {
	Name() string
	IsShutdown() bool
	Metrics() BrokerMetrics
}

// Registry tracks brokers by name for the status command and debug log.
type Registry struct {
	brokers map[string]BrokerInfo
	mu      sync.RWMutex
}

// NewRegistry creates a new broker registry.
func NewRegistry() *Registry {
	return &Registry{
		brokers: make(map[string]BrokerInfo),
	}
}

// Register adds a broker to the registry, replacing any broker with the same name.
func (r *Registry) Register(broker BrokerInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brokers[broker.Name()] = broker
}

// Get retrieves a broker by name.
func (r *Registry) Get(name string) (BrokerInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brokers[name]
	return b, ok
}

// List returns the registered broker names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.brokers))
}

// DebugString returns one line per broker, sorted by name.
func (r *Registry) DebugString() string {
	var sb strings.Builder
	names := r.List()
	fmt.Fprintf(&sb, "=== Broker Registry (%d brokers) ===\n", len(names))

	for _, name := range names {
		broker, ok := r.Get(name)
		if !ok {
			continue
		}
		m := broker.Metrics()
		fmt.Fprintf(&sb, "  %s: subs=%d, published=%d, dropped=%d, shutdown=%v\n",
			name, m.SubscriberCount, m.PublishCount, m.DropCount, broker.IsShutdown())
	}

	return sb.String()
}
