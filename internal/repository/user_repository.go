package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

type UserRepository struct {
	DB *db.Postgres
}

type CreateUserParams struct {
	Name         string
	Email        string
	Phone        string
	StationID    *int64
	Role         domain.UserRole
	PasswordHash *string
}

func (r UserRepository) Create(ctx context.Context, p CreateUserParams) (*domain.User, error) {
	query := `
		INSERT INTO users (name, email, phone, station_id, role, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now(), now())
		RETURNING id, name, email, phone, station_id, role, password_hash, created_at, updated_at
	`
	row := r.DB.Pool.QueryRow(ctx, query, p.Name, p.Email, p.Phone, p.StationID, p.Role, p.PasswordHash)
	return scanUser(row)
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, phone, station_id, role, password_hash, created_at, updated_at
		FROM users
		WHERE email=$1 AND deleted_at IS NULL
	`
	row := r.DB.Pool.QueryRow(ctx, query, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, name, email, phone, station_id, role, password_hash, created_at, updated_at
		FROM users
		WHERE id=$1 AND deleted_at IS NULL
	`
	row := r.DB.Pool.QueryRow(ctx, query, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.StationID,
		&role,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// IsDuplicate detects unique constraint violation.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}
