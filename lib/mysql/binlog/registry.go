package binlog

import "sync"

// Registry tracks the most recently announced [TableDescriptor] per table id for one stream session.
type Registry struct {
	mu     sync.RWMutex
	tables map[uint64]TableDescriptor
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[uint64]TableDescriptor)}
}

// Observe stores desc, replacing whatever was previously announced for the same table id.
func (r *Registry) Observe(desc TableDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables[desc.TableID] = desc
}

func (r *Registry) Lookup(tableID uint64) (TableDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.tables[tableID]
	return desc, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tables)
}
