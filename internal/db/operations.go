package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var (
	Profile = &ProfileOperations{}
	History = &HistoryOperations{}
)

type ProfileOperations struct{}

// SaveProfile upserts the single merchant profile row. Last write wins, no
// history is kept.
func (o *ProfileOperations) SaveProfile(ctx context.Context, shopName, payoutID string) error {
	_, err := GetDB().ExecContext(ctx, `
		INSERT INTO merchant_profile (id, shop_name, payout_id, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			shop_name = excluded.shop_name,
			payout_id = excluded.payout_id,
			updated_at = CURRENT_TIMESTAMP
	`, shopName, payoutID)
	if err != nil {
		return fmt.Errorf("failed to save merchant profile: %w", err)
	}
	return nil
}

func (o *ProfileOperations) GetProfile(ctx context.Context) (*MerchantProfile, error) {
	p := &MerchantProfile{}
	err := GetDB().QueryRowContext(ctx, `
		SELECT shop_name, payout_id, updated_at FROM merchant_profile WHERE id = 1
	`).Scan(&p.ShopName, &p.PayoutID, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get merchant profile: %w", err)
	}
	return p, nil
}

type HistoryOperations struct{}

func (o *HistoryOperations) RecordEvent(ctx context.Context, queueNumber int64, event string, totalCost int64, detail string) error {
	_, err := GetDB().ExecContext(ctx, `
		INSERT INTO print_history (queue_number, event, total_cost, detail)
		VALUES (?, ?, ?, ?)
	`, queueNumber, event, totalCost, detail)
	if err != nil {
		return fmt.Errorf("failed to record history event: %w", err)
	}
	return nil
}

func (o *HistoryOperations) ListRecent(ctx context.Context, limit int) ([]*HistoryEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	rows, err := GetDB().QueryContext(ctx, `
		SELECT id, queue_number, event, total_cost, detail, created_at
		FROM print_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		e := &HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.QueueNumber, &e.Event, &e.TotalCost, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneBefore drops history older than the cutoff. Returns the number of rows
// removed.
func (o *HistoryOperations) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := GetDB().ExecContext(ctx, `
		DELETE FROM print_history WHERE created_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
