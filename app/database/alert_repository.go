package database

import (
	"fmt"
)

type alertRepository struct {
	db *DB
}

func NewAlertRepository(db *DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) RecordAlert(itemID, category, keyword string) error {
	_, err := r.db.Exec(`
		INSERT INTO alerts (item_id, category, keyword)
		VALUES (?, ?, ?)
	`, itemID, category, keyword)

	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}

	return nil
}

func (r *alertRepository) GetRecentAlerts(limit int) ([]Alert, error) {
	rows, err := r.db.Query(`
		SELECT id, item_id, category, keyword, announced_at
		FROM alerts
		ORDER BY announced_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var alert Alert
		err := rows.Scan(&alert.ID, &alert.ItemID, &alert.Category, &alert.Keyword, &alert.AnnouncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w", err)
	}

	return alerts, nil
}

func (r *alertRepository) GetAlertCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM alerts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get alert count: %w", err)
	}
	return count, nil
}
