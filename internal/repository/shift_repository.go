package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

type ShiftRepository struct {
	DB       *db.Postgres
	Audit    AuditLogRepository
	Currency string
}

type CreateShiftInput struct {
	StationID   int64
	StartsAt    time.Time
	EndsAt      time.Time
	SourceFile  string
	MarketTotal int64
	CreatedBy   int64
}

const shiftColumns = `
	id, station_id, starts_at, ends_at, status, prior_status,
	pump_total, market_total, source_file, reject_reason, delete_reason,
	created_by, created_at, updated_at`

func (r ShiftRepository) Create(ctx context.Context, in CreateShiftInput) (*domain.Shift, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO shifts (station_id, starts_at, ends_at, status, pump_total, market_total, source_file, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,0,$5,$6,$7, now(), now())
		RETURNING `+shiftColumns,
		in.StationID, in.StartsAt, in.EndsAt, domain.ShiftOpen, in.MarketTotal, in.SourceFile, in.CreatedBy)
	return r.scanShift(row)
}

func (r ShiftRepository) GetByID(ctx context.Context, id int64) (*domain.Shift, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	shift, err := r.scanShift(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return shift, nil
}

func (r ShiftRepository) List(ctx context.Context, stationID *int64, from, to *time.Time, limit int) ([]domain.Shift, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE deleted_at IS NULL
		  AND ($1::bigint IS NULL OR station_id=$1)
		  AND ($2::timestamptz IS NULL OR starts_at >= $2)
		  AND ($3::timestamptz IS NULL OR starts_at <= $3)
		ORDER BY starts_at DESC, id DESC
		LIMIT $4
	`, stationID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Shift
	for rows.Next() {
		shift, err := r.scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *shift)
	}
	return out, rows.Err()
}

// Snapshot reads the shift with all attached sales lines and collections
// in one repeatable-read transaction so aggregation never sees a moving
// data set.
func (r ShiftRepository) Snapshot(ctx context.Context, shiftID int64) (domain.ShiftSnapshot, error) {
	var snap domain.ShiftSnapshot

	tx, err := r.DB.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return snap, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE id=$1 AND deleted_at IS NULL
	`, shiftID)
	shift, err := r.scanShift(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, ErrNotFound
		}
		return snap, err
	}
	snap.Shift = *shift

	lineRows, err := tx.Query(ctx, `
		SELECT id, shift_id, kind, pump_no, plate, fuel_type, volume_milli, unit_price, total, employee_id, sold_at, created_at
		FROM sales_lines
		WHERE shift_id=$1
		ORDER BY id
	`, shiftID)
	if err != nil {
		return snap, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var (
			l    domain.SalesLine
			kind string
		)
		var unitPrice, total int64
		if err := lineRows.Scan(&l.ID, &l.ShiftID, &kind, &l.PumpNo, &l.Plate, &l.FuelType, &l.VolumeMilli, &unitPrice, &total, &l.EmployeeID, &l.SoldAt, &l.CreatedAt); err != nil {
			return snap, err
		}
		l.Kind = domain.SalesLineKind(kind)
		l.UnitPrice = domain.NewMoney(unitPrice, r.Currency)
		l.Total = domain.NewMoney(total, r.Currency)
		snap.Lines = append(snap.Lines, l)
	}
	if err := lineRows.Err(); err != nil {
		return snap, err
	}

	colRows, err := tx.Query(ctx, `
		SELECT id, shift_id, employee_id, cash, card, loyalty, mobile, note, card_detail, others, created_at
		FROM collections
		WHERE shift_id=$1
		ORDER BY id
	`, shiftID)
	if err != nil {
		return snap, err
	}
	defer colRows.Close()
	for colRows.Next() {
		col, err := scanCollection(colRows, r.Currency)
		if err != nil {
			return snap, err
		}
		snap.Collections = append(snap.Collections, *col)
	}
	if err := colRows.Err(); err != nil {
		return snap, err
	}

	if err := tx.Commit(ctx); err != nil {
		return snap, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return snap, nil
}

// Transition serializes lifecycle changes per shift: the row is locked,
// decide runs against the locked state, and the status update commits
// together with its audit entry. A failed decide leaves no trace.
func (r ShiftRepository) Transition(ctx context.Context, shiftID int64, decide func(domain.Shift) (domain.TransitionOutcome, error)) (*domain.Shift, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE id=$1 AND deleted_at IS NULL
		FOR UPDATE
	`, shiftID)
	current, err := r.scanShift(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	out, err := decide(*current)
	if err != nil {
		return nil, err
	}

	var deletedAt *time.Time
	if out.SoftDelete {
		now := time.Now()
		deletedAt = &now
	}
	updated := tx.QueryRow(ctx, `
		UPDATE shifts
		SET status=$2, prior_status=$3, reject_reason=$4, delete_reason=$5, deleted_at=$6, updated_at=now()
		WHERE id=$1
		RETURNING `+shiftColumns,
		shiftID, out.Status, out.PriorStatus, out.RejectReason, out.DeleteReason, deletedAt)
	shift, err := r.scanShift(updated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if err := r.Audit.AppendTx(ctx, tx, out.Audit); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return shift, nil
}

func (r ShiftRepository) scanShift(row interface {
	Scan(dest ...any) error
}) (*domain.Shift, error) {
	var (
		s            domain.Shift
		status       string
		prior        *string
		pump, market int64
	)
	if err := row.Scan(
		&s.ID,
		&s.StationID,
		&s.StartsAt,
		&s.EndsAt,
		&status,
		&prior,
		&pump,
		&market,
		&s.SourceFile,
		&s.RejectReason,
		&s.DeleteReason,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Status = domain.ShiftStatus(status)
	if prior != nil {
		ps := domain.ShiftStatus(*prior)
		s.PriorStatus = &ps
	}
	s.PumpTotal = domain.NewMoney(pump, r.Currency)
	s.MarketTotal = domain.NewMoney(market, r.Currency)
	return &s, nil
}
