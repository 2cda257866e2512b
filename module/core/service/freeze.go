package service

import "github.com/MedRayenZoubli/TruckTrack/module/core/domain"

// applyFreeze picks the position that is committed for an update. A vehicle in
// STOP keeps its stored coordinates until a directive clears the status.
func applyFreeze(existing *domain.Vehicle, incoming domain.Position) (domain.Position, bool) {
	if existing == nil || existing.Status != domain.StatusStop {
		return incoming, false
	}
	return existing.Position(), true
}
