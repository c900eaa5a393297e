package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/app"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/domain"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetResourceForUpdate takes the resource's row lock for the enclosing
// transaction. Concurrent reservation operations on the same resource
// block here; other resources are unaffected.
func (r *ReservationRepository) GetResourceForUpdate(ctx context.Context, resourceID string) (domain.Resource, error) {
	const query = `
SELECT id, code, COALESCE(name, ''), COALESCE(description, ''), state, current_request_id, created_at
FROM resources
WHERE id = $1
FOR UPDATE`

	var res domain.Resource
	err := r.queryRow(ctx, query, resourceID).Scan(
		&res.ID, &res.Code, &res.Name, &res.Description, &res.State, &res.CurrentRequestID, &res.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Resource{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Resource{}, domain.ErrResourceNotFound
		}
		return domain.Resource{}, fmt.Errorf("get resource for update: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) SaveResource(ctx context.Context, resource domain.Resource) error {
	const stmt = `
UPDATE resources
SET state = $2, current_request_id = $3
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, resource.ID, resource.State, resource.CurrentRequestID)
	if err != nil {
		return fmt.Errorf("save resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

func (r *ReservationRepository) GetClient(ctx context.Context, clientID string) (domain.Client, error) {
	const query = `SELECT id, external_id, COALESCE(name, '') FROM clients WHERE id = $1`

	var c domain.Client
	err := r.queryRow(ctx, query, clientID).Scan(&c.ID, &c.ExternalID, &c.Name)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Client{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Client{}, domain.ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// MaxLogicalTS scans every request ever made for the resource, any
// status. No separate counter is persisted; the aggregate under the row
// lock is the source of truth.
func (r *ReservationRepository) MaxLogicalTS(ctx context.Context, resourceID string) (int64, error) {
	const query = `SELECT COALESCE(MAX(logical_ts), 0) FROM requests WHERE resource_id = $1`

	var max int64
	if err := r.queryRow(ctx, query, resourceID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max logical ts: %w", err)
	}
	return max, nil
}

func (r *ReservationRepository) CreateRequest(ctx context.Context, request domain.Request) error {
	const stmt = `
INSERT INTO requests (id, resource_id, client_id, logical_ts, tie_break_key, status, granted_at, released_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		request.ID,
		request.ResourceID,
		request.ClientID,
		request.LogicalTS,
		request.TieBreakKey,
		request.Status,
		request.GrantedAt,
		request.ReleasedAt,
		request.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (r *ReservationRepository) UpdateRequest(ctx context.Context, request domain.Request) error {
	const stmt = `
UPDATE requests
SET status = $2, granted_at = $3, released_at = $4
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, request.ID, request.Status, request.GrantedAt, request.ReleasedAt)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update request: no row for id %s", request.ID)
	}
	return nil
}

// FindActiveRequest returns the client's most recently created ACTIVE
// request on the resource, or nil when the client holds nothing.
func (r *ReservationRepository) FindActiveRequest(ctx context.Context, resourceID, clientID string) (*domain.Request, error) {
	const query = `
SELECT id, resource_id, client_id, logical_ts, tie_break_key, status, granted_at, released_at, created_at
FROM requests
WHERE resource_id = $1 AND client_id = $2 AND status = $3
ORDER BY created_at DESC
LIMIT 1`

	req, err := r.scanRequest(r.queryRow(ctx, query, resourceID, clientID, domain.RequestActive))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active request: %w", err)
	}
	return &req, nil
}

// NextQueuedRequest picks the promotion winner: the QUEUED request with
// the smallest (logical_ts, tie_break_key) pair. The composite index on
// (resource_id, status, logical_ts, tie_break_key) serves this query.
func (r *ReservationRepository) NextQueuedRequest(ctx context.Context, resourceID string) (*domain.Request, error) {
	const query = `
SELECT id, resource_id, client_id, logical_ts, tie_break_key, status, granted_at, released_at, created_at
FROM requests
WHERE resource_id = $1 AND status = $2
ORDER BY logical_ts ASC, tie_break_key ASC
LIMIT 1`

	req, err := r.scanRequest(r.queryRow(ctx, query, resourceID, domain.RequestQueued))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("next queued request: %w", err)
	}
	return &req, nil
}

func (r *ReservationRepository) AppendEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (request_id, event_type, client_ts, server_ts, payload)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, event.RequestID, event.Type, event.ClientTS, event.ServerTS, event.Payload)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (r *ReservationRepository) ListQueue(ctx context.Context, resourceID string) ([]app.QueueEntry, error) {
	const query = `
SELECT rq.id, COALESCE(NULLIF(c.name, ''), c.external_id), rq.status, rq.logical_ts, rq.tie_break_key
FROM requests rq
JOIN clients c ON c.id = rq.client_id
WHERE rq.resource_id = $1 AND rq.status = ANY($2)
ORDER BY rq.logical_ts ASC, rq.tie_break_key ASC`

	statuses := []string{string(domain.RequestQueued), string(domain.RequestActive)}
	rows, err := r.query(ctx, query, resourceID, statuses)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	entries := make([]app.QueueEntry, 0)
	for rows.Next() {
		var e app.QueueEntry
		if err := rows.Scan(&e.RequestID, &e.ClientDisplay, &e.Status, &e.LogicalTS, &e.TieBreakKey); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return entries, nil
}

func (r *ReservationRepository) scanRequest(row pgx.Row) (domain.Request, error) {
	var req domain.Request
	err := row.Scan(
		&req.ID,
		&req.ResourceID,
		&req.ClientID,
		&req.LogicalTS,
		&req.TieBreakKey,
		&req.Status,
		&req.GrantedAt,
		&req.ReleasedAt,
		&req.CreatedAt,
	)
	return req, err
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
