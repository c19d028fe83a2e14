package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

type CollectionRepository struct {
	DB       *db.Postgres
	Currency string
}

// JSONB shapes for the optional itemised detail columns.
type cardDetailRow struct {
	Processor string `json:"processor"`
	Amount    int64  `json:"amount"`
}

type otherEntryRow struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// Create attaches one employee's reported receipt to a shift. Like sales
// lines, collections are only accepted while the shift is OPEN; a second
// collection for the same employee is allowed and summed by aggregation.
func (r CollectionRepository) Create(ctx context.Context, c domain.Collection) (int64, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM shifts WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`, c.ShiftID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if domain.ShiftStatus(status) != domain.ShiftOpen {
		return 0, &domain.ValidationError{Field: "shift", Reason: "collections can only be attached while OPEN"}
	}

	cardDetail := make([]cardDetailRow, 0, len(c.CardDetail))
	for _, d := range c.CardDetail {
		cardDetail = append(cardDetail, cardDetailRow{Processor: d.Processor, Amount: d.Amount.Amount})
	}
	others := make([]otherEntryRow, 0, len(c.Others))
	for _, o := range c.Others {
		others = append(others, otherEntryRow{Label: o.Label, Amount: o.Amount.Amount})
	}
	cardJSON, err := json.Marshal(cardDetail)
	if err != nil {
		return 0, err
	}
	othersJSON, err := json.Marshal(others)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO collections (shift_id, employee_id, cash, card, loyalty, mobile, note, card_detail, others, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
		RETURNING id
	`, c.ShiftID, c.EmployeeID, c.Cash.Amount, c.Card.Amount, c.Loyalty.Amount, c.Mobile.Amount, c.Note, cardJSON, othersJSON).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return id, nil
}

func (r CollectionRepository) ListForShift(ctx context.Context, shiftID int64) ([]domain.Collection, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shift_id, employee_id, cash, card, loyalty, mobile, note, card_detail, others, created_at
		FROM collections
		WHERE shift_id=$1
		ORDER BY id
	`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Collection
	for rows.Next() {
		col, err := scanCollection(rows, r.Currency)
		if err != nil {
			return nil, err
		}
		out = append(out, *col)
	}
	return out, rows.Err()
}

func scanCollection(row interface {
	Scan(dest ...any) error
}, currency string) (*domain.Collection, error) {
	var (
		c                           domain.Collection
		cash, card, loyalty, mobile int64
		cardJSON, othersJSON        []byte
	)
	if err := row.Scan(&c.ID, &c.ShiftID, &c.EmployeeID, &cash, &card, &loyalty, &mobile, &c.Note, &cardJSON, &othersJSON, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Cash = domain.NewMoney(cash, currency)
	c.Card = domain.NewMoney(card, currency)
	c.Loyalty = domain.NewMoney(loyalty, currency)
	c.Mobile = domain.NewMoney(mobile, currency)

	var cardDetail []cardDetailRow
	if len(cardJSON) > 0 {
		if err := json.Unmarshal(cardJSON, &cardDetail); err != nil {
			return nil, err
		}
	}
	for _, d := range cardDetail {
		c.CardDetail = append(c.CardDetail, domain.CardProcessorEntry{
			Processor: d.Processor,
			Amount:    domain.NewMoney(d.Amount, currency),
		})
	}

	var others []otherEntryRow
	if len(othersJSON) > 0 {
		if err := json.Unmarshal(othersJSON, &others); err != nil {
			return nil, err
		}
	}
	for _, o := range others {
		c.Others = append(c.Others, domain.OtherPaymentEntry{
			Label:  o.Label,
			Amount: domain.NewMoney(o.Amount, currency),
		})
	}
	return &c, nil
}
