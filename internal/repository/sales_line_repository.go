package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

type SalesLineRepository struct {
	DB       *db.Postgres
	Currency string
}

// BulkInsert attaches lines to a shift and recomputes the shift's pump
// total from the full stored set before committing. The shift row is
// locked for the duration so the attach cannot race a workflow transition
// or another attach, and lines may only be attached while the shift is
// still OPEN; they are immutable afterwards.
func (r SalesLineRepository) BulkInsert(ctx context.Context, shiftID int64, lines []domain.SalesLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM shifts WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`, shiftID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if domain.ShiftStatus(status) != domain.ShiftOpen {
		return &domain.ValidationError{Field: "shift", Reason: "sales lines can only be attached while OPEN"}
	}

	for _, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO sales_lines (shift_id, kind, pump_no, plate, fuel_type, volume_milli, unit_price, total, employee_id, sold_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now())
		`, shiftID, string(l.Kind), l.PumpNo, l.Plate, l.FuelType, l.VolumeMilli, l.UnitPrice.Amount, l.Total.Amount, l.EmployeeID, l.SoldAt)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
	}

	// Recompute under the same lock; a read-then-write outside it could
	// persist a sum missing a concurrent attach's lines.
	var pump int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(total),0) FROM sales_lines WHERE shift_id=$1`, shiftID).Scan(&pump); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if _, err := tx.Exec(ctx, `UPDATE shifts SET pump_total=$2, updated_at=now() WHERE id=$1`, shiftID, pump); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r SalesLineRepository) ListForShift(ctx context.Context, shiftID int64) ([]domain.SalesLine, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shift_id, kind, pump_no, plate, fuel_type, volume_milli, unit_price, total, employee_id, sold_at, created_at
		FROM sales_lines
		WHERE shift_id=$1
		ORDER BY id
	`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SalesLine
	for rows.Next() {
		var (
			l    domain.SalesLine
			kind string
		)
		var unitPrice, total int64
		if err := rows.Scan(&l.ID, &l.ShiftID, &kind, &l.PumpNo, &l.Plate, &l.FuelType, &l.VolumeMilli, &unitPrice, &total, &l.EmployeeID, &l.SoldAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Kind = domain.SalesLineKind(kind)
		l.UnitPrice = domain.NewMoney(unitPrice, r.Currency)
		l.Total = domain.NewMoney(total, r.Currency)
		out = append(out, l)
	}
	return out, rows.Err()
}
