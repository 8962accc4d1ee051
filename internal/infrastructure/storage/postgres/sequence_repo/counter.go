// Package sequence_repo provides the PostgreSQL implementation of the voucher
// number counter. Increment and decrement are single atomic UPDATE statements
// so concurrent reservations never read-modify-write.
package sequence_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/sequence"
	"khata/internal/infrastructure/storage/postgres"
)

const countersTable = "voucher_counters"

var counterColumns = []string{
	"id", "company_id", "user_id", "voucher_type",
	"prefix", "suffix", "separator", "pad_length",
	"starting_number", "current_number",
	"reset_frequency", "last_reset",
	"created_at", "updated_at",
}

// CounterRepo implements sequence.Repository.
type CounterRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewCounterRepo creates a counter repository.
func NewCounterRepo(txManager *postgres.TxManager) *CounterRepo {
	return &CounterRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ sequence.Repository = (*CounterRepo)(nil)

// Create inserts a new counter. One counter per (company, voucher type).
func (r *CounterRepo) Create(ctx context.Context, c *sequence.Counter) error {
	q := r.builder.Insert(countersTable).
		Columns(counterColumns...).
		Values(
			c.ID, c.CompanyID, c.UserID, c.VoucherType,
			c.Prefix, c.Suffix, c.Separator, c.PadLength,
			c.StartingNumber, c.CurrentNumber,
			c.ResetFrequency, c.LastReset,
			c.CreatedAt, c.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("counter already exists for this voucher type").
				WithDetail("voucherType", c.VoucherType).WithCause(err)
		}
		return fmt.Errorf("insert counter: %w", err)
	}
	return nil
}

// Get retrieves the counter for a (company, voucher type) pair.
func (r *CounterRepo) Get(ctx context.Context, companyID id.ID, voucherType string) (*sequence.Counter, error) {
	q := r.builder.Select(counterColumns...).
		From(countersTable).
		Where(squirrel.Eq{"company_id": companyID, "voucher_type": voucherType}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c sequence.Counter
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("voucher counter", voucherType)
		}
		return nil, fmt.Errorf("get counter: %w", err)
	}
	return &c, nil
}

// Increment atomically bumps current_number and returns the new value.
func (r *CounterRepo) Increment(ctx context.Context, companyID id.ID, voucherType string) (int64, error) {
	sql := `
		UPDATE voucher_counters
		SET current_number = current_number + 1, updated_at = now()
		WHERE company_id = $1 AND voucher_type = $2
		RETURNING current_number
	`

	var value int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, companyID, voucherType).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewNotFound("voucher counter", voucherType)
		}
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	return value, nil
}

// Decrement atomically lowers current_number, clamped at starting_number.
// Releasing a number that was never above the floor is harmless.
func (r *CounterRepo) Decrement(ctx context.Context, companyID id.ID, voucherType string) (int64, error) {
	sql := `
		UPDATE voucher_counters
		SET current_number = GREATEST(current_number - 1, starting_number),
		    updated_at = now()
		WHERE company_id = $1 AND voucher_type = $2
		RETURNING current_number
	`

	var value int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, companyID, voucherType).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewNotFound("voucher counter", voucherType)
		}
		return 0, fmt.Errorf("decrement counter: %w", err)
	}
	return value, nil
}

// Reset rewinds current_number to starting_number. The last_reset guard makes
// the reset idempotent under concurrency: only the caller that still sees a
// stale last_reset applies it, everyone else no-ops.
func (r *CounterRepo) Reset(ctx context.Context, companyID id.ID, voucherType string, boundary, now time.Time) error {
	sql := `
		UPDATE voucher_counters
		SET current_number = starting_number, last_reset = $3, updated_at = $4
		WHERE company_id = $1 AND voucher_type = $2 AND last_reset < $3
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, companyID, voucherType, boundary, now); err != nil {
		return fmt.Errorf("reset counter: %w", err)
	}
	return nil
}
