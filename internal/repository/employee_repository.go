package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

type EmployeeRepository struct {
	DB *db.Postgres
}

func (r EmployeeRepository) List(ctx context.Context, stationID int64, limit int) ([]domain.Employee, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, station_id, name, badge_no, phone, active, created_at, updated_at
		FROM employees
		WHERE deleted_at IS NULL AND station_id=$1
		ORDER BY name, id
		LIMIT $2
	`, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.StationID, &e.Name, &e.BadgeNo, &e.Phone, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r EmployeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	var e domain.Employee
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, station_id, name, badge_no, phone, active, created_at, updated_at
		FROM employees
		WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(&e.ID, &e.StationID, &e.Name, &e.BadgeNo, &e.Phone, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r EmployeeRepository) Save(ctx context.Context, e domain.Employee) (*domain.Employee, error) {
	if e.ID == 0 {
		err := r.DB.Pool.QueryRow(ctx, `
			INSERT INTO employees (station_id, name, badge_no, phone, active, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5, now(), now())
			RETURNING id, created_at, updated_at
		`, e.StationID, e.Name, e.BadgeNo, e.Phone, e.Active).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}
		return &e, nil
	}
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE employees SET name=$2, badge_no=$3, phone=$4, active=$5, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL
	`, e.ID, e.Name, e.BadgeNo, e.Phone, e.Active)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return &e, nil
}

// ErrEmployeeReferenced blocks deletion of an employee still referenced
// by shift data; the reference must be resolved first.
var ErrEmployeeReferenced = errors.New("employee still referenced by shift data")

// Delete soft-deletes an employee unless a sales line or collection still
// references it (restrict semantics).
func (r EmployeeRepository) Delete(ctx context.Context, id int64) error {
	var referenced bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM sales_lines WHERE employee_id=$1)
		    OR EXISTS(SELECT 1 FROM collections WHERE employee_id=$1)
	`, id).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced {
		return ErrEmployeeReferenced
	}

	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE employees SET deleted_at=now() WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
