package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

type StationRepository struct {
	DB *db.Postgres
}

func (r StationRepository) List(ctx context.Context, limit int) ([]domain.Station, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, code, city, address, recon_mode, recon_warn, recon_critical, created_at, updated_at
		FROM stations
		WHERE deleted_at IS NULL
		ORDER BY name, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Station
	for rows.Next() {
		var s domain.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.City, &s.Address, &s.ReconMode, &s.ReconWarn, &s.ReconCritical, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r StationRepository) GetByID(ctx context.Context, id int64) (*domain.Station, error) {
	var s domain.Station
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, code, city, address, recon_mode, recon_warn, recon_critical, created_at, updated_at
		FROM stations
		WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(&s.ID, &s.Name, &s.Code, &s.City, &s.Address, &s.ReconMode, &s.ReconWarn, &s.ReconCritical, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r StationRepository) Save(ctx context.Context, s domain.Station) (*domain.Station, error) {
	if s.ID == 0 {
		err := r.DB.Pool.QueryRow(ctx, `
			INSERT INTO stations (name, code, city, address, recon_mode, recon_warn, recon_critical, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
			RETURNING id, created_at, updated_at
		`, s.Name, s.Code, s.City, s.Address, s.ReconMode, s.ReconWarn, s.ReconCritical).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		return &s, nil
	}
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE stations SET name=$2, code=$3, city=$4, address=$5, recon_mode=$6, recon_warn=$7, recon_critical=$8, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL
	`, s.ID, s.Name, s.Code, s.City, s.Address, s.ReconMode, s.ReconWarn, s.ReconCritical)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return &s, nil
}
