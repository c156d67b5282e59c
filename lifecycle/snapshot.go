package lifecycle

import (
	"sort"

	"commitbot/models"
)

// Snapshot is the member table as loaded at the start of a run, indexed by id.
// Phases mutate the records in place so later phases observe earlier decisions.
type Snapshot struct {
	byID  map[int64]*models.Member
	order []int64
}

// NewSnapshot indexes members by id. Later duplicates replace earlier ones.
func NewSnapshot(members []*models.Member) *Snapshot {
	s := &Snapshot{byID: make(map[int64]*models.Member, len(members))}
	for _, m := range members {
		if m == nil {
			continue
		}
		if _, seen := s.byID[m.ID]; !seen {
			s.order = append(s.order, m.ID)
		}
		s.byID[m.ID] = m
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	return s
}

// Get returns the record for id.
func (s *Snapshot) Get(id int64) (*models.Member, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// Len returns the number of members.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Each calls fn for every member in ascending id order.
func (s *Snapshot) Each(fn func(m *models.Member)) {
	for _, id := range s.order {
		fn(s.byID[id])
	}
}
