package repository

import (
	"context"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

// GrantRepository reads the externally managed role grant table
// the permission resolver is fed from. Admin rows are pointless (admin
// bypasses the table) but harmless.
type GrantRepository struct {
	DB *db.Postgres
}

func (r GrantRepository) LoadGrants(ctx context.Context) (map[domain.UserRole][]string, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT role, resource_key
		FROM role_grants
		ORDER BY role, resource_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.UserRole][]string{}
	for rows.Next() {
		var role, key string
		if err := rows.Scan(&role, &key); err != nil {
			return nil, err
		}
		out[domain.UserRole(role)] = append(out[domain.UserRole(role)], key)
	}
	return out, rows.Err()
}
