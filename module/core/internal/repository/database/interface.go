package database

import "github.com/MedRayenZoubli/TruckTrack/module/core/domain"

// CommitFunc derives the next record from the current one. current is the zero
// value when exists is false.
type CommitFunc func(current domain.Vehicle, exists bool) domain.Vehicle

// CommitHook observes a committed record while the vehicle is still locked, so
// hooks for one vehicle run in commit order.
type CommitHook func(committed domain.Vehicle, previous domain.Status)

type VehicleStore interface {
	Commit(id string, fn CommitFunc, hooks ...CommitHook) (committed domain.Vehicle, previous domain.Status, existed bool)
	Get(id string) (domain.Vehicle, error)
	List() []domain.Vehicle
	Each(fn func(domain.Vehicle))
	Len() int
}
