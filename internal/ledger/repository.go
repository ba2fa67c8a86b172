package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for ledger events.
// The table is append-only; there are no update or delete paths.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (r *Repository) WithNow(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Record appends a new event and returns it with identity assigned.
func (r *Repository) Record(ctx context.Context, in RecordInput) (Event, error) {
	if err := in.Validate(); err != nil {
		return Event{}, err
	}
	ev := Event{
		ID:         uuid.New(),
		RegisterID: in.RegisterID,
		Kind:       in.Kind,
		Tender:     in.Tender,
		Amount:     in.Amount,
		Reference:  in.Reference,
		Settled:    in.Settled,
		OccurredAt: in.OccurredAt.UTC(),
		RecordedAt: r.now().UTC(),
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ledger_events (id, register_id, kind, tender, amount, reference, settled, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.RegisterID, string(ev.Kind), string(ev.Tender), ev.Amount, ev.Reference, ev.Settled, ev.OccurredAt, ev.RecordedAt)
	if err != nil {
		return Event{}, fmt.Errorf("ledger: record event: %w", err)
	}
	return ev, nil
}

// ListRange returns the register's events within [from, to) ordered by
// occurrence. The SQL predicate mirrors the accumulator's half-open window.
func (r *Repository) ListRange(ctx context.Context, registerID string, from, to time.Time) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, register_id, kind, tender, amount, reference, settled, occurred_at, recorded_at
		FROM ledger_events
		WHERE register_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		ORDER BY occurred_at, recorded_at`,
		registerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger: list range: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListUnsettled returns sale events in the window whose payment has not
// settled. Advisory only; used to warn operators before closing.
func (r *Repository) ListUnsettled(ctx context.Context, registerID string, from, to time.Time) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, register_id, kind, tender, amount, reference, settled, occurred_at, recorded_at
		FROM ledger_events
		WHERE register_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		  AND kind = $4 AND settled = FALSE
		ORDER BY occurred_at`,
		registerID, from, to, string(KindSale))
	if err != nil {
		return nil, fmt.Errorf("ledger: list unsettled: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var ev Event
		var kind, tender string
		if err := rows.Scan(&ev.ID, &ev.RegisterID, &kind, &tender, &ev.Amount, &ev.Reference, &ev.Settled, &ev.OccurredAt, &ev.RecordedAt); err != nil {
			return nil, err
		}
		ev.Kind = EventKind(kind)
		ev.Tender = Tender(tender)
		events = append(events, ev)
	}
	return events, rows.Err()
}
