package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jackc/pgx/v5/pgxpool"
)

// All queue hints travel over one NOTIFY channel; the payload is the
// resource id. The identifier is fixed because LISTEN cannot be
// parameterized.
const pgChannel = "reservas_queue_updates"

// PostgresNotifier publishes queue hints through Postgres NOTIFY so every
// API process attached to the database sees them, not just the one that
// committed the change.
type PostgresNotifier struct {
	pool *pgxpool.Pool
}

func NewPostgresNotifier(pool *pgxpool.Pool) *PostgresNotifier {
	return &PostgresNotifier{pool: pool}
}

func (n *PostgresNotifier) Publish(ctx context.Context, resourceID string) error {
	if _, err := n.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, pgChannel, resourceID); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}

// Listener pumps NOTIFY payloads into a Hub. Run blocks until the context
// is cancelled, reconnecting with a flat backoff when the listening
// connection drops.
type Listener struct {
	pool   *pgxpool.Pool
	hub    *Hub
	logger hclog.Logger

	retryDelay time.Duration
}

func NewListener(pool *pgxpool.Pool, hub *Hub, logger hclog.Logger) *Listener {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Listener{
		pool:       pool,
		hub:        hub,
		logger:     logger.Named("notify.listener"),
		retryDelay: 2 * time.Second,
	}
}

func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("listen connection lost, reconnecting", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN `+pgChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		_ = l.hub.Publish(ctx, notification.Payload)
	}
}
