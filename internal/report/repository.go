package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/opentill/opentill/internal/platform/db"
)

// Repository persists issued Z-reports and owns the per-register sequence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Issue assigns the register's next sequence number and persists the report,
// atomically in one transaction. Sequence numbers are gap-free under normal
// operation; a gap can only appear if this transaction commits and a later,
// separate write fails, which does not happen on this path. A duplicate
// period surfaces as ErrZReportExists (unique constraint on period_id).
func (r *Repository) Issue(ctx context.Context, z ZReport) (ZReport, error) {
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO z_sequences (register_id, next_seq) VALUES ($1, 2)
			ON CONFLICT (register_id) DO UPDATE SET next_seq = z_sequences.next_seq + 1
			RETURNING next_seq - 1`, z.RegisterID)
		if err := row.Scan(&z.Sequence); err != nil {
			return fmt.Errorf("allocate sequence: %w", err)
		}
		payload, err := json.Marshal(z)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO z_reports (id, period_id, register_id, sequence, generated_by, generated_at, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			z.ID, z.PeriodID, z.RegisterID, z.Sequence, z.GeneratedBy, z.GeneratedAt, payload)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ZReport{}, ErrZReportExists
		}
		return ZReport{}, fmt.Errorf("report: issue z-report: %w", err)
	}
	return z, nil
}

// GetByPeriod loads the Z-report issued for a period.
func (r *Repository) GetByPeriod(ctx context.Context, periodID uuid.UUID) (ZReport, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM z_reports WHERE period_id = $1`, periodID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ZReport{}, ErrZReportNotFound
		}
		return ZReport{}, fmt.Errorf("report: get z-report: %w", err)
	}
	var z ZReport
	if err := json.Unmarshal(payload, &z); err != nil {
		return ZReport{}, fmt.Errorf("report: decode z-report: %w", err)
	}
	return z, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
