package domain

import "time"

type RequestStatus string

const (
	RequestQueued   RequestStatus = "QUEUED"
	RequestActive   RequestStatus = "ACTIVE"
	RequestFinished RequestStatus = "FINISHED"
	// Terminal states reserved for future operations; nothing in the core
	// transitions into them today.
	RequestCancelled RequestStatus = "CANCELLED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestExpired   RequestStatus = "EXPIRED"
)

// Request is one client's claim on one resource. LogicalTS and TieBreakKey
// together order the queue: smaller logical timestamp wins, equal
// timestamps fall back to ascending string comparison of the key, so every
// node applying the same queue snapshot picks the same winner.
type Request struct {
	ID          string
	ResourceID  string
	ClientID    string
	LogicalTS   int64
	TieBreakKey string
	Status      RequestStatus
	GrantedAt   *time.Time
	ReleasedAt  *time.Time
	CreatedAt   time.Time
}

// Terminal reports whether the request can no longer change state.
func (r Request) Terminal() bool {
	switch r.Status {
	case RequestFinished, RequestCancelled, RequestRejected, RequestExpired:
		return true
	}
	return false
}
