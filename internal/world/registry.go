package world

import (
	"sync"

	"github.com/Garsondee/Drone-Sense/internal/drone"
)

// Registry is the shared soldier table. All methods are safe for concurrent
// use; MarkFound is the only mutator after setup and is atomic.
type Registry struct {
	mu       sync.RWMutex
	soldiers map[string]*Soldier
	order    []string
	missing  []string
	found    []string
	count    int
}

// NewRegistry returns a registry holding soldiers, all not found.
func NewRegistry(soldiers ...*Soldier) *Registry {
	r := &Registry{soldiers: make(map[string]*Soldier, len(soldiers))}
	for _, s := range soldiers {
		r.Add(s)
	}
	return r
}

// Add registers a soldier. Already-found soldiers go straight to the found
// list. Adding a duplicate ID is a no-op.
func (r *Registry) Add(s *Soldier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.soldiers[s.ID]; ok {
		return
	}
	r.soldiers[s.ID] = s
	r.order = append(r.order, s.ID)
	if s.Status == drone.StatusFound {
		r.found = append(r.found, s.ID)
		r.count++
		return
	}
	r.missing = append(r.missing, s.ID)
}

// Candidates returns a snapshot of every soldier not yet found.
func (r *Registry) Candidates() []drone.Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]drone.Candidate, 0, len(r.missing))
	for _, id := range r.missing {
		out = append(out, r.soldiers[id].candidate())
	}
	return out
}

// MarkFound flips id to found, moves it from missing to found and bumps the
// counter under one lock. Only the first caller for an id gets true.
func (r *Registry) MarkFound(id, by string, tick int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.soldiers[id]
	if !ok || s.Status == drone.StatusFound {
		return false
	}
	s.Status = drone.StatusFound
	s.FoundBy = by
	s.FoundTick = tick
	for i, m := range r.missing {
		if m == id {
			r.missing = append(r.missing[:i], r.missing[i+1:]...)
			break
		}
	}
	r.found = append(r.found, id)
	r.count++
	return true
}

// FoundCount is the number of soldiers found so far.
func (r *Registry) FoundCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Missing returns copies of the soldiers not yet found, in spawn order.
func (r *Registry) Missing() []Soldier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyIDs(r.missing)
}

// Found returns copies of found soldiers in the order they were found.
func (r *Registry) Found() []Soldier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyIDs(r.found)
}

// All returns copies of every soldier in spawn order.
func (r *Registry) All() []Soldier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyIDs(r.order)
}

// Soldier looks up one soldier by ID.
func (r *Registry) Soldier(id string) (Soldier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.soldiers[id]
	if !ok {
		return Soldier{}, false
	}
	return *s, true
}

func (r *Registry) copyIDs(ids []string) []Soldier {
	out := make([]Soldier, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.soldiers[id])
	}
	return out
}
