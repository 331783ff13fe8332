package engine

import (
	"sort"

	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

// Registry holds the intermediate (crafted) items discovered during a
// recompute pass. Alongside the live entries it keeps a snapshot of each
// item's first-computed values; snapshots persist across passes so an
// override can always be rolled back to the state the item had when it was
// last derived from its recipe.
type Registry struct {
	items     map[string]*craftimizer.IntermediateItem
	originals map[string]craftimizer.IntermediateItem
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		items:     make(map[string]*craftimizer.IntermediateItem),
		originals: make(map[string]craftimizer.IntermediateItem),
	}
}

// Has reports whether the name was already registered this pass.
func (r *Registry) Has(name string) bool {
	_, ok := r.items[name]
	return ok
}

// Get returns the live entry for a name, or nil.
func (r *Registry) Get(name string) *craftimizer.IntermediateItem {
	return r.items[name]
}

// Insert registers an intermediate item if it is not present yet and
// snapshots it as the restore point for override clearing. Later sightings
// in the same pass keep the first-computed values.
func (r *Registry) Insert(item craftimizer.IntermediateItem) {
	if _, ok := r.items[item.Name]; ok {
		return
	}
	copied := item
	r.items[item.Name] = &copied
	r.originals[item.Name] = item
}

// Restore puts a previously snapshotted entry back into the live set,
// overwriting whatever is there.
func (r *Registry) Restore(item craftimizer.IntermediateItem) {
	copied := item
	r.items[item.Name] = &copied
}

// Remove deletes a live entry. The snapshot is kept.
func (r *Registry) Remove(name string) {
	delete(r.items, name)
}

// Original returns the snapshot for a name, if one was ever taken.
func (r *Registry) Original(name string) (craftimizer.IntermediateItem, bool) {
	item, ok := r.originals[name]
	return item, ok
}

// BeginPass clears the live entries and returns the previous pass's set so
// the caller can reconcile levels after resolution.
func (r *Registry) BeginPass() map[string]craftimizer.IntermediateItem {
	prev := make(map[string]craftimizer.IntermediateItem, len(r.items))
	for name, item := range r.items {
		prev[name] = *item
	}
	r.items = make(map[string]*craftimizer.IntermediateItem)
	return prev
}

// Entries returns the live entries sorted by name.
func (r *Registry) Entries() []craftimizer.IntermediateItem {
	out := make([]craftimizer.IntermediateItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
