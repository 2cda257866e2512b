package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/database"
)

var _ database.VehicleStore = (*VehicleStore)(nil)

type entry struct {
	mu      sync.Mutex
	vehicle domain.Vehicle
	// committed stays false until the first Commit for the id finishes, so readers
	// never see the placeholder created by a concurrent first update.
	committed bool
}

// VehicleStore keeps vehicles in memory. The map is guarded by mu; each record
// has its own lock, so updates for different ids never wait on each other.
type VehicleStore struct {
	mu       sync.RWMutex
	vehicles map[string]*entry
}

func NewVehicleStore() *VehicleStore {
	return &VehicleStore{vehicles: make(map[string]*entry)}
}

func (s *VehicleStore) entry(id string) *entry {
	s.mu.RLock()
	e, ok := s.vehicles[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.vehicles[id]; !ok {
		e = &entry{}
		s.vehicles[id] = e
	}
	return e
}

func (s *VehicleStore) Commit(id string, fn database.CommitFunc, hooks ...database.CommitHook) (domain.Vehicle, domain.Status, bool) {
	e := s.entry(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	existed := e.committed
	previous := domain.StatusOK
	if existed {
		previous = e.vehicle.Status
	}

	next := fn(e.vehicle, existed)
	next.ID = id
	e.vehicle = next
	e.committed = true

	for _, h := range hooks {
		h(next, previous)
	}
	return next, previous, existed
}

func (s *VehicleStore) Get(id string) (domain.Vehicle, error) {
	s.mu.RLock()
	e, ok := s.vehicles[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Vehicle{}, fmt.Errorf("vehicle %s: %w", id, domain.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.committed {
		return domain.Vehicle{}, fmt.Errorf("vehicle %s: %w", id, domain.ErrNotFound)
	}
	return e.vehicle, nil
}

// List returns copies of every committed vehicle ordered by id.
func (s *VehicleStore) List() []domain.Vehicle {
	results := make([]domain.Vehicle, 0, s.Len())
	s.Each(func(v domain.Vehicle) {
		results = append(results, v)
	})
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

// Each calls fn for every committed vehicle while holding that vehicle's lock.
// fn must not call back into the store for the same id.
func (s *VehicleStore) Each(fn func(domain.Vehicle)) {
	for _, e := range s.entries() {
		e.mu.Lock()
		if e.committed {
			fn(e.vehicle)
		}
		e.mu.Unlock()
	}
}

func (s *VehicleStore) Len() int {
	n := 0
	for _, e := range s.entries() {
		e.mu.Lock()
		if e.committed {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

func (s *VehicleStore) entries() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry, 0, len(s.vehicles))
	for _, e := range s.vehicles {
		out = append(out, e)
	}
	return out
}
