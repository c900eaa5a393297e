package domain

import "time"

type ResourceState string

const (
	ResourceAvailable    ResourceState = "AVAILABLE"
	ResourceBusy         ResourceState = "BUSY"
	ResourceOutOfService ResourceState = "OUT_OF_SERVICE"
)

// Resource is a shared, exclusively-lockable resource (printer, room,
// piece of equipment). State and CurrentRequestID are only mutated by the
// reservation service while holding the resource's row lock.
//
// Invariant: State == ResourceBusy iff CurrentRequestID points at the
// single ACTIVE request; State == ResourceAvailable implies no current
// request.
type Resource struct {
	ID               string
	Code             string
	Name             string
	Description      string
	State            ResourceState
	CurrentRequestID *string
	CreatedAt        time.Time
}
