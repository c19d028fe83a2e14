package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

// AuditLogRepository is the append-only trail of workflow transitions.
// Its contract has no update and no delete; rows outlive their shift.
type AuditLogRepository struct {
	DB *db.Postgres
}

func (r AuditLogRepository) Append(ctx context.Context, e domain.AuditLogEntry) (int64, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO audit_logs (shift_id, action, actor_id, actor_name, actor_role, note, from_status, to_status, logged_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, e.ShiftID, string(e.Action), e.ActorID, e.ActorName, string(e.ActorRole), e.Note, string(e.FromStatus), string(e.ToStatus), e.LoggedAt).Scan(&id)
	return id, err
}

// AppendTx writes the entry inside an open transaction so the caller can
// commit it atomically with the status change it records.
func (r AuditLogRepository) AppendTx(ctx context.Context, tx pgx.Tx, e domain.AuditLogEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_logs (shift_id, action, actor_id, actor_name, actor_role, note, from_status, to_status, logged_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, e.ShiftID, string(e.Action), e.ActorID, e.ActorName, string(e.ActorRole), e.Note, string(e.FromStatus), string(e.ToStatus), e.LoggedAt)
	return err
}

// ListForShift returns the trail for one shift, newest first by default.
func (r AuditLogRepository) ListForShift(ctx context.Context, shiftID int64, limit int, oldestFirst bool) ([]domain.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	order := "DESC"
	if oldestFirst {
		order = "ASC"
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shift_id, action, actor_id, actor_name, actor_role, note, from_status, to_status, logged_at
		FROM audit_logs
		WHERE shift_id=$1
		ORDER BY logged_at `+order+`, id `+order+`
		LIMIT $2
	`, shiftID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditLogEntry
	for rows.Next() {
		var (
			e      domain.AuditLogEntry
			action string
			role   string
			from   string
			to     string
		)
		if err := rows.Scan(&e.ID, &e.ShiftID, &action, &e.ActorID, &e.ActorName, &role, &e.Note, &from, &to, &e.LoggedAt); err != nil {
			return nil, err
		}
		e.Action = domain.WorkflowEvent(action)
		e.ActorRole = domain.UserRole(role)
		e.FromStatus = domain.ShiftStatus(from)
		e.ToStatus = domain.ShiftStatus(to)
		out = append(out, e)
	}
	return out, rows.Err()
}
