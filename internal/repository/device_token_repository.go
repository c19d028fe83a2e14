package repository

import (
	"context"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
)

type DeviceTokenRepository struct {
	DB *db.Postgres
}

type RegisterTokenInput struct {
	UserID   *int64
	Token    string
	Platform string
}

func (r DeviceTokenRepository) Register(ctx context.Context, in RegisterTokenInput) error {
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, created_at)
		VALUES ($1,$2,$3, now())
		ON CONFLICT (token) DO UPDATE SET user_id=EXCLUDED.user_id, platform=EXCLUDED.platform
	`, in.UserID, in.Token, in.Platform)
	return err
}

// ActiveTokens returns tokens of approver-side users (supervisors,
// managers, admins) who receive transition notifications.
func (r DeviceTokenRepository) ActiveTokens(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT dt.token
		FROM device_tokens dt
		JOIN users u ON u.id = dt.user_id
		WHERE u.deleted_at IS NULL AND u.role IN ('admin','manager','supervisor')
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
