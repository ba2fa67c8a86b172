package workperiod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/opentill/opentill/internal/platform/db"
)

const periodColumns = `id, register_id, status, opened_at, opened_by, opening_float,
	closed_at, closed_by, closing_cash, expected_cash, variance, notes, created_at`

// Repository persists work periods. The single-open invariant is enforced by
// a partial unique index on (register_id) WHERE status = 'OPEN', so two
// concurrent opens racing past the application-level check cannot both land.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOpen returns the register's open period, or ErrNoOpenPeriod.
func (r *Repository) GetOpen(ctx context.Context, registerID string) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM work_periods WHERE register_id = $1 AND status = $2`,
		registerID, string(StatusOpen))
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNoOpenPeriod
		}
		return Period{}, fmt.Errorf("workperiod: get open: %w", err)
	}
	return p, nil
}

// GetByID loads a period regardless of status.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM work_periods WHERE id = $1`, id)
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNotFound
		}
		return Period{}, fmt.Errorf("workperiod: get by id: %w", err)
	}
	return p, nil
}

// GetLastClosed returns the register's most recently closed period, used to
// carry forward a suggested opening float. ErrNotFound when history is empty.
func (r *Repository) GetLastClosed(ctx context.Context, registerID string) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM work_periods
		WHERE register_id = $1 AND status = $2 ORDER BY closed_at DESC LIMIT 1`,
		registerID, string(StatusClosed))
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNotFound
		}
		return Period{}, fmt.Errorf("workperiod: get last closed: %w", err)
	}
	return p, nil
}

// Append inserts a new open period. The partial unique index surfaces a
// concurrent open as SQLSTATE 23505, mapped here to ErrAlreadyOpen.
func (r *Repository) Append(ctx context.Context, p Period) (Period, error) {
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO work_periods (id, register_id, status, opened_at, opened_by, opening_float, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.RegisterID, string(p.Status), p.OpenedAt, p.OpenedBy, p.OpeningFloat, p.Notes, p.CreatedAt)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Period{}, ErrAlreadyOpen
		}
		return Period{}, fmt.Errorf("workperiod: append: %w", err)
	}
	return p, nil
}

// Close performs the one-shot transition to CLOSED. The row is locked for
// the duration of the transaction; a second submission observes the already
// closed row and gets ErrAlreadyClosed, which makes caller retries safe.
func (r *Repository) Close(ctx context.Context, rec CloseRecord) (Period, error) {
	var closed Period
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM work_periods WHERE id = $1 FOR UPDATE`, rec.PeriodID)
		p, err := scanPeriod(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if p.Status == StatusClosed {
			return ErrAlreadyClosed
		}
		notes := p.Notes
		if rec.Notes != "" {
			notes = rec.Notes
		}
		row = tx.QueryRow(ctx, `
			UPDATE work_periods
			SET status = $2, closed_at = $3, closed_by = $4, closing_cash = $5,
			    expected_cash = $6, variance = $7, notes = $8
			WHERE id = $1
			RETURNING `+periodColumns,
			rec.PeriodID, string(StatusClosed), rec.ClosedAt, rec.UserID,
			rec.ClosingCash, rec.ExpectedCash, rec.Variance, notes)
		closed, err = scanPeriod(row)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyClosed) {
			return Period{}, err
		}
		return Period{}, fmt.Errorf("workperiod: close: %w", err)
	}
	return closed, nil
}

// ListOpenOlderThan returns open periods whose opening timestamp predates the
// cutoff. Used by the worker's stale scan.
func (r *Repository) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]Period, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM work_periods
		WHERE status = $1 AND opened_at < $2 ORDER BY opened_at`,
		string(StatusOpen), cutoff)
	if err != nil {
		return nil, fmt.Errorf("workperiod: list stale: %w", err)
	}
	defer rows.Close()
	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	var status string
	err := row.Scan(&p.ID, &p.RegisterID, &status, &p.OpenedAt, &p.OpenedBy, &p.OpeningFloat,
		&p.ClosedAt, &p.ClosedBy, &p.ClosingCash, &p.ExpectedCash, &p.Variance, &p.Notes, &p.CreatedAt)
	if err != nil {
		return Period{}, err
	}
	p.Status = Status(status)
	return p, nil
}
