package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/domain"
)

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) CreateResource(ctx context.Context, resource domain.Resource) error {
	const stmt = `
INSERT INTO resources (id, code, name, description, state, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, stmt,
		resource.ID,
		resource.Code,
		resource.Name,
		resource.Description,
		resource.State,
		resource.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrResourceExists
		}
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

func (r *AdminRepository) ListResources(ctx context.Context) ([]domain.Resource, error) {
	const query = `
SELECT id, code, COALESCE(name, ''), COALESCE(description, ''), state, current_request_id, created_at
FROM resources
ORDER BY code ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	resources := make([]domain.Resource, 0)
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(&res.ID, &res.Code, &res.Name, &res.Description, &res.State, &res.CurrentRequestID, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *AdminRepository) CreateClient(ctx context.Context, client domain.Client) error {
	const stmt = `INSERT INTO clients (id, external_id, name) VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, stmt, client.ID, client.ExternalID, client.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrClientExists
		}
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (r *AdminRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	const query = `SELECT id, external_id, COALESCE(name, '') FROM clients ORDER BY external_id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0)
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.ExternalID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// ListEvents reads the audit log newest-first, optionally filtered to the
// events of one resource's requests.
func (r *AdminRepository) ListEvents(ctx context.Context, resourceID string) ([]domain.Event, error) {
	const all = `
SELECT id, request_id, event_type, client_ts, server_ts, payload
FROM events
ORDER BY id DESC
LIMIT 500`

	const byResource = `
SELECT e.id, e.request_id, e.event_type, e.client_ts, e.server_ts, e.payload
FROM events e
JOIN requests rq ON rq.id = e.request_id
WHERE rq.resource_id = $1
ORDER BY e.id DESC
LIMIT 500`

	var (
		rows pgx.Rows
		err  error
	)
	if resourceID == "" {
		rows, err = r.pool.Query(ctx, all)
	} else {
		rows, err = r.pool.Query(ctx, byResource, resourceID)
	}
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Type, &e.ClientTS, &e.ServerTS, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
