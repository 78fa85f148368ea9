package queue

import "sync"

// DedupIndex tracks which job IDs have been admitted during the current
// run. It is the single source of truth for admission: the first caller
// of Admit for a given ID wins, every later caller is rejected.
//
// There is no removal during a run; the index is replaced wholesale when
// the controller restarts.
type DedupIndex struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupIndex creates an empty index.
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{
		seen: make(map[string]struct{}),
	}
}

// Admit atomically checks membership and inserts if absent. It returns
// true only for the first caller with a given jobID.
func (d *DedupIndex) Admit(jobID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[jobID]; ok {
		return false
	}
	d.seen[jobID] = struct{}{}
	return true
}

// Seen reports whether jobID has already been admitted.
func (d *DedupIndex) Seen(jobID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.seen[jobID]
	return ok
}

// Size returns the number of admitted job IDs.
func (d *DedupIndex) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.seen)
}
