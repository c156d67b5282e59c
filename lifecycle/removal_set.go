package lifecycle

// RemovalSet collects member ids scheduled for removal during one run.
// It keeps insertion order and ignores duplicates.
type RemovalSet struct {
	ids      []int64
	seen     map[int64]struct{}
	consumed bool
}

// NewRemovalSet creates an empty set.
func NewRemovalSet() *RemovalSet {
	return &RemovalSet{seen: make(map[int64]struct{})}
}

// Add schedules id. It reports false if id was already scheduled or the set was drained.
func (r *RemovalSet) Add(id int64) bool {
	if r.consumed {
		return false
	}
	if _, ok := r.seen[id]; ok {
		return false
	}
	r.seen[id] = struct{}{}
	r.ids = append(r.ids, id)
	return true
}

// Len returns the number of scheduled ids.
func (r *RemovalSet) Len() int {
	return len(r.ids)
}

// Drain returns the scheduled ids once. Later calls return nil.
func (r *RemovalSet) Drain() []int64 {
	if r.consumed {
		return nil
	}
	r.consumed = true
	ids := r.ids
	r.ids = nil
	return ids
}
