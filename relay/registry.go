package relay

import (
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/onnwee/youwin/telemetry"
)

// Registry tracks the open connections by id.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*websocket.Conn)}
}

// Add stores conn under id, replacing any previous entry.
func (r *Registry) Add(id string, conn *websocket.Conn) {
	r.mu.Lock()
	r.conns[id] = conn
	n := len(r.conns)
	r.mu.Unlock()
	telemetry.SetActiveConnections(n)
}

// Remove deletes id; removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	n := len(r.conns)
	r.mu.Unlock()
	telemetry.SetActiveConnections(n)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
