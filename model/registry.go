package model

// QueryRegistry is the set of query ids seen while building hits.
// Ids keep first-insertion order so per-query output is stable.
// Not safe for concurrent use; it is owned by the pipeline that builds hits.
type QueryRegistry struct {
	ids  []string
	seen map[string]struct{}
}

// NewQueryRegistry creates a registry, optionally seeded with ids.
func NewQueryRegistry(ids ...string) *QueryRegistry {
	r := &QueryRegistry{seen: make(map[string]struct{})}
	for _, id := range ids {
		r.Add(id)
	}
	return r
}

// Add inserts id. Returns false if it was already present.
func (r *QueryRegistry) Add(id string) bool {
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	if _, ok := r.seen[id]; ok {
		return false
	}
	r.seen[id] = struct{}{}
	r.ids = append(r.ids, id)
	return true
}

// Contains reports whether id has been registered.
func (r *QueryRegistry) Contains(id string) bool {
	_, ok := r.seen[id]
	return ok
}

// IDs returns the registered ids in insertion order.
func (r *QueryRegistry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// Len returns the number of registered ids.
func (r *QueryRegistry) Len() int {
	return len(r.ids)
}

// Load replaces the registry contents, used when resuming a saved project.
// Duplicates in ids are collapsed.
func (r *QueryRegistry) Load(ids []string) {
	r.ids = nil
	r.seen = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		r.Add(id)
	}
}
