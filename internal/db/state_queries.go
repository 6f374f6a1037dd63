package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/j-veylop/stepmeter/internal/models"
)

// SaveAccountantState writes every state field in one transaction.
// An uninitialized counter baseline is stored as an empty string.
func (db *DB) SaveAccountantState(ctx context.Context, s models.AccountantState) error {
	counter := ""
	if s.CounterBaselined {
		counter = strconv.FormatFloat(s.LastCounterValue, 'f', -1, 64)
	}

	values := [][2]string{
		{stateKeyTrackedDay, string(s.TrackedDay)},
		{stateKeyTotalSteps, strconv.Itoa(s.TotalSteps)},
		{stateKeyLastCounterValue, counter},
		{stateKeyAnchorHour, strconv.Itoa(s.AnchorHour)},
		{stateKeyStepsAtAnchor, strconv.Itoa(s.StepsAtAnchor)},
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin state transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO accountant_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	now := time.Now().Format(timestampLayout)
	for _, kv := range values {
		if _, err := tx.ExecContext(ctx, query, kv[0], kv[1], now); err != nil {
			return fmt.Errorf("failed to save state %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

// LoadAccountantState reads the persisted state. The boolean is false when
// nothing has been saved yet.
func (db *DB) LoadAccountantState(ctx context.Context) (models.AccountantState, bool, error) {
	var state models.AccountantState

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM accountant_state`)
	if err != nil {
		return state, false, fmt.Errorf("failed to query accountant state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return state, false, fmt.Errorf("failed to scan accountant state: %w", err)
		}
		values[key] = value.String
	}
	if err := rows.Err(); err != nil {
		return state, false, err
	}

	day, ok := values[stateKeyTrackedDay]
	if !ok || day == "" {
		return state, false, nil
	}
	state.TrackedDay = models.Day(day)

	if state.TotalSteps, err = atoiKey(values, stateKeyTotalSteps); err != nil {
		return state, false, err
	}
	if state.AnchorHour, err = atoiKey(values, stateKeyAnchorHour); err != nil {
		return state, false, err
	}
	if state.StepsAtAnchor, err = atoiKey(values, stateKeyStepsAtAnchor); err != nil {
		return state, false, err
	}
	if v := values[stateKeyLastCounterValue]; v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return state, false, fmt.Errorf("invalid %s %q: %w", stateKeyLastCounterValue, v, err)
		}
		state.LastCounterValue = f
		state.CounterBaselined = true
	}

	return state, true, nil
}

func atoiKey(values map[string]string, key string) (int, error) {
	v, ok := values[key]
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
