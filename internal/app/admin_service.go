package app

import (
	"context"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/clock"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/domain"
)

type AdminRepository interface {
	CreateResource(ctx context.Context, resource domain.Resource) error
	ListResources(ctx context.Context) ([]domain.Resource, error)
	CreateClient(ctx context.Context, client domain.Client) error
	ListClients(ctx context.Context) ([]domain.Client, error)
	ListEvents(ctx context.Context, resourceID string) ([]domain.Event, error)
}

// AdminService covers the administrative surface: registering resources
// and clients, and reading the audit log. Resource state is never touched
// here; only the reservation service mutates it.
type AdminService struct {
	repo  AdminRepository
	clock clock.Clock
}

func NewAdminService(repo AdminRepository, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:  repo,
		clock: clk,
	}
}

type CreateResourceInput struct {
	Code        string
	Name        string
	Description string
}

func (s *AdminService) CreateResource(ctx context.Context, in CreateResourceInput) (domain.Resource, error) {
	if in.Code == "" {
		return domain.Resource{}, domain.ErrCodeRequired
	}

	resource := domain.Resource{
		ID:          newUUID(),
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		State:       domain.ResourceAvailable,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repo.CreateResource(ctx, resource); err != nil {
		return domain.Resource{}, err
	}
	return resource, nil
}

func (s *AdminService) ListResources(ctx context.Context) ([]domain.Resource, error) {
	return s.repo.ListResources(ctx)
}

type CreateClientInput struct {
	ExternalID string
	Name       string
}

func (s *AdminService) CreateClient(ctx context.Context, in CreateClientInput) (domain.Client, error) {
	if in.ExternalID == "" {
		return domain.Client{}, domain.ErrExternalIDRequired
	}

	client := domain.Client{
		ID:         newUUID(),
		ExternalID: in.ExternalID,
		Name:       in.Name,
	}

	if err := s.repo.CreateClient(ctx, client); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

func (s *AdminService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.repo.ListClients(ctx)
}

// ListEvents reads the audit trail, optionally scoped to one resource.
func (s *AdminService) ListEvents(ctx context.Context, resourceID string) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx, resourceID)
}
