package db

import (
	"context"
	"fmt"
	"time"

	"github.com/j-veylop/stepmeter/internal/models"
)

var timeFormats = []string{
	timestampLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UpsertHour writes one hourly record. An existing row for the same
// (day, hour) is replaced, never summed.
func (db *DB) UpsertHour(ctx context.Context, rec models.HourlyStepRecord) error {
	if !rec.Valid() {
		return fmt.Errorf("invalid hourly record %s/%d: %d steps", rec.Day, rec.Hour, rec.Steps)
	}

	query := `
		INSERT INTO hourly_steps (day, hour, steps, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(day, hour) DO UPDATE SET
			steps = excluded.steps,
			updated_at = excluded.updated_at
	`

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, query,
		string(rec.Day),
		rec.Hour,
		rec.Steps,
		updatedAt.Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert hourly steps: %w", err)
	}
	return nil
}

// GetHourlyRecords returns the stored records of a day ordered by hour.
// Hours without a record are absent.
func (db *DB) GetHourlyRecords(ctx context.Context, day models.Day) ([]models.HourlyStepRecord, error) {
	query := `
		SELECT day, hour, steps, COALESCE(updated_at, '')
		FROM hourly_steps
		WHERE day = ?
		ORDER BY hour
	`

	rows, err := db.QueryContext(ctx, query, string(day))
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.HourlyStepRecord
	for rows.Next() {
		var rec models.HourlyStepRecord
		var dayStr, updatedAt string
		if err := rows.Scan(&dayStr, &rec.Hour, &rec.Steps, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hourly steps: %w", err)
		}
		rec.Day = models.Day(dayStr)
		if t, ok := parseTimeString(updatedAt); ok {
			rec.UpdatedAt = t
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetDailyTotal returns the sum of committed hours for a day.
func (db *DB) GetDailyTotal(ctx context.Context, day models.Day) (int, error) {
	var total int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(steps), 0) FROM hourly_steps WHERE day = ?`,
		string(day),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to query daily total: %w", err)
	}
	return total, nil
}

// GetDailyTotals returns per-day sums for days in [from, to], oldest first.
// Days without records are absent.
func (db *DB) GetDailyTotals(ctx context.Context, from, to models.Day) ([]models.DailyTotal, error) {
	query := `
		SELECT day, SUM(steps)
		FROM hourly_steps
		WHERE day >= ? AND day <= ?
		GROUP BY day
		ORDER BY day
	`

	rows, err := db.QueryContext(ctx, query, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []models.DailyTotal
	for rows.Next() {
		var dayStr string
		var dt models.DailyTotal
		if err := rows.Scan(&dayStr, &dt.Steps); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		dt.Day = models.Day(dayStr)
		totals = append(totals, dt)
	}

	return totals, rows.Err()
}

// ListDays returns the most recent days that have records, newest first.
func (db *DB) ListDays(ctx context.Context, limit int) ([]models.Day, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT day FROM hourly_steps ORDER BY day DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var days []models.Day
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, models.Day(d))
	}

	return days, rows.Err()
}

// DeleteDay removes all records of a day.
func (db *DB) DeleteDay(ctx context.Context, day models.Day) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM hourly_steps WHERE day = ?`, string(day))
	if err != nil {
		return 0, fmt.Errorf("failed to delete day: %w", err)
	}
	return result.RowsAffected()
}

// DeleteHour removes the record for one hour of a day.
func (db *DB) DeleteHour(ctx context.Context, day models.Day, hour int) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM hourly_steps WHERE day = ? AND hour = ?`, string(day), hour)
	if err != nil {
		return 0, fmt.Errorf("failed to delete hour: %w", err)
	}
	return result.RowsAffected()
}

// PurgeOlderThan removes every record whose day is strictly before day.
func (db *DB) PurgeOlderThan(ctx context.Context, day models.Day) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM hourly_steps WHERE day < ?`, string(day))
	if err != nil {
		return 0, fmt.Errorf("failed to purge old steps: %w", err)
	}
	return result.RowsAffected()
}

// DeleteAll removes every hourly record.
func (db *DB) DeleteAll(ctx context.Context) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM hourly_steps`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete all steps: %w", err)
	}
	return result.RowsAffected()
}
