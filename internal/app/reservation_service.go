package app

import (
	"context"

	"github.com/VictoriaMetrics/metrics"
	"github.com/hashicorp/go-hclog"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/clock"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/domain"
)

// QueueEntry is one row of a resource's queue as exposed to readers:
// the ACTIVE holder plus all QUEUED requests, ordered by
// (logical_ts, tie_break_key).
type QueueEntry struct {
	RequestID     string
	ClientDisplay string
	Status        domain.RequestStatus
	LogicalTS     int64
	TieBreakKey   string
}

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetResourceForUpdate(ctx context.Context, resourceID string) (domain.Resource, error)
	SaveResource(ctx context.Context, resource domain.Resource) error
	GetClient(ctx context.Context, clientID string) (domain.Client, error)
	MaxLogicalTS(ctx context.Context, resourceID string) (int64, error)
	CreateRequest(ctx context.Context, request domain.Request) error
	UpdateRequest(ctx context.Context, request domain.Request) error
	FindActiveRequest(ctx context.Context, resourceID, clientID string) (*domain.Request, error)
	NextQueuedRequest(ctx context.Context, resourceID string) (*domain.Request, error)
	AppendEvent(ctx context.Context, event domain.Event) error
	ListQueue(ctx context.Context, resourceID string) ([]QueueEntry, error)
}

// Notifier broadcasts a queue-change hint for a resource. Delivery is
// best-effort: the reservation operations succeed regardless of the
// notifier's outcome.
type Notifier interface {
	Publish(ctx context.Context, resourceID string) error
}

var (
	requestsGranted = metrics.GetOrCreateCounter(`reservations_requests_total{outcome="granted"}`)
	requestsQueued  = metrics.GetOrCreateCounter(`reservations_requests_total{outcome="queued"}`)
	releasesDone    = metrics.GetOrCreateCounter(`reservations_releases_total{outcome="released"}`)
	releasesNoop    = metrics.GetOrCreateCounter(`reservations_releases_total{outcome="noop"}`)
	promotions      = metrics.GetOrCreateCounter(`reservations_promotions_total`)
)

// ReservationService arbitrates exclusive access to resources. Each
// operation runs as one transaction that first takes the target resource's
// row lock, so operations on the same resource serialize while unrelated
// resources proceed in parallel.
type ReservationService struct {
	repo     ReservationRepository
	clock    clock.Clock
	notifier Notifier
	logger   hclog.Logger
}

func NewReservationService(repo ReservationRepository, clk clock.Clock, notifier Notifier, logger hclog.Logger) *ReservationService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ReservationService{
		repo:     repo,
		clock:    clk,
		notifier: notifier,
		logger:   logger.Named("reservations"),
	}
}

type RequestInput struct {
	ResourceID string
	ClientID   string
	ClientTS   int64
}

// Request stamps a new reservation with the next Lamport timestamp for the
// resource and either grants it immediately (resource AVAILABLE) or queues
// it. The caller inspects the returned request's Status.
func (s *ReservationService) Request(ctx context.Context, in RequestInput) (domain.Request, error) {
	if in.ClientID == "" {
		return domain.Request{}, domain.ErrClientIDRequired
	}

	now := s.clock.Now()
	var result domain.Request

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		resource, err := s.repo.GetResourceForUpdate(txCtx, in.ResourceID)
		if err != nil {
			return err
		}
		client, err := s.repo.GetClient(txCtx, in.ClientID)
		if err != nil {
			return err
		}

		lastIssued, err := s.repo.MaxLogicalTS(txCtx, resource.ID)
		if err != nil {
			return err
		}
		logicalTS := nextLogicalTS(in.ClientTS, lastIssued)

		request := domain.Request{
			ID:          newUUID(),
			ResourceID:  resource.ID,
			ClientID:    client.ID,
			LogicalTS:   logicalTS,
			TieBreakKey: client.ExternalID,
			Status:      domain.RequestQueued,
			CreatedAt:   now,
		}

		if resource.State == domain.ResourceAvailable {
			grantedAt := now
			request.Status = domain.RequestActive
			request.GrantedAt = &grantedAt
			resource.State = domain.ResourceBusy
			resource.CurrentRequestID = &request.ID
		}

		if err := s.repo.CreateRequest(txCtx, request); err != nil {
			return err
		}
		if err := s.repo.SaveResource(txCtx, resource); err != nil {
			return err
		}

		clientTS := in.ClientTS
		if err := s.repo.AppendEvent(txCtx, domain.Event{
			RequestID: &request.ID,
			Type:      domain.EventRequested,
			ClientTS:  &clientTS,
			ServerTS:  now,
			Payload: map[string]any{
				"action":           "request",
				"resulting_status": string(request.Status),
				"logical_ts":       logicalTS,
				"tie_break_key":    request.TieBreakKey,
				"client":           client.ExternalID,
				"resource":         resource.Code,
			},
		}); err != nil {
			return err
		}

		result = request
		return nil
	})
	if err != nil {
		return domain.Request{}, err
	}

	if result.Status == domain.RequestActive {
		requestsGranted.Inc()
	} else {
		requestsQueued.Inc()
	}
	s.publish(ctx, in.ResourceID)
	return result, nil
}

type ReleaseInput struct {
	ResourceID string
	ClientID   string
}

// Release finishes the client's ACTIVE request on the resource and
// promotes the queued request with the smallest (logical_ts,
// tie_break_key) pair, if any. Releasing without an active request is an
// idempotent no-op: the returned request is nil and nothing is mutated.
func (s *ReservationService) Release(ctx context.Context, in ReleaseInput) (*domain.Request, error) {
	if in.ClientID == "" {
		return nil, domain.ErrClientIDRequired
	}

	now := s.clock.Now()
	var (
		released *domain.Request
		promoted bool
	)

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		resource, err := s.repo.GetResourceForUpdate(txCtx, in.ResourceID)
		if err != nil {
			return err
		}
		client, err := s.repo.GetClient(txCtx, in.ClientID)
		if err != nil {
			return err
		}

		active, err := s.repo.FindActiveRequest(txCtx, resource.ID, client.ID)
		if err != nil {
			return err
		}
		if active == nil {
			return nil
		}

		releasedAt := now
		active.Status = domain.RequestFinished
		active.ReleasedAt = &releasedAt
		if err := s.repo.UpdateRequest(txCtx, *active); err != nil {
			return err
		}

		resource.State = domain.ResourceAvailable
		resource.CurrentRequestID = nil

		if err := s.repo.AppendEvent(txCtx, domain.Event{
			RequestID: &active.ID,
			Type:      domain.EventReleased,
			ServerTS:  now,
			Payload: map[string]any{
				"action":   "release",
				"client":   client.ExternalID,
				"resource": resource.Code,
			},
		}); err != nil {
			return err
		}

		next, err := s.repo.NextQueuedRequest(txCtx, resource.ID)
		if err != nil {
			return err
		}
		if next != nil {
			promotedClient, err := s.repo.GetClient(txCtx, next.ClientID)
			if err != nil {
				return err
			}

			grantedAt := now
			next.Status = domain.RequestActive
			next.GrantedAt = &grantedAt
			if err := s.repo.UpdateRequest(txCtx, *next); err != nil {
				return err
			}

			resource.State = domain.ResourceBusy
			resource.CurrentRequestID = &next.ID
			promoted = true

			if err := s.repo.AppendEvent(txCtx, domain.Event{
				RequestID: &next.ID,
				Type:      domain.EventGranted,
				ServerTS:  now,
				Payload: map[string]any{
					"action":        "grant_from_queue",
					"client":        promotedClient.ExternalID,
					"resource":      resource.Code,
					"logical_ts":    next.LogicalTS,
					"tie_break_key": next.TieBreakKey,
				},
			}); err != nil {
				return err
			}
		}

		if err := s.repo.SaveResource(txCtx, resource); err != nil {
			return err
		}

		released = active
		return nil
	})
	if err != nil {
		return nil, err
	}
	if released == nil {
		releasesNoop.Inc()
		return nil, nil
	}

	releasesDone.Inc()
	if promoted {
		promotions.Inc()
	}
	s.publish(ctx, in.ResourceID)
	return released, nil
}

// Queue returns the ACTIVE and QUEUED requests for a resource in admission
// order.
func (s *ReservationService) Queue(ctx context.Context, resourceID string) ([]QueueEntry, error) {
	return s.repo.ListQueue(ctx, resourceID)
}

// publish runs after the transaction has committed so a slow subscriber
// can never extend lock hold time. Failures are advisory only.
func (s *ReservationService) publish(ctx context.Context, resourceID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, resourceID); err != nil {
		s.logger.Warn("queue change notification failed", "resource_id", resourceID, "error", err)
	}
}
