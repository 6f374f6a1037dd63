package db

import (
	"context"
	"testing"
	"time"

	"github.com/j-veylop/stepmeter/internal/models"
)

func rec(day models.Day, hour, steps int) models.HourlyStepRecord {
	return models.HourlyStepRecord{
		Day:       day,
		Hour:      hour,
		Steps:     steps,
		UpdatedAt: time.Date(2026, 1, 1, hour, 59, 0, 0, time.Local),
	}
}

func TestUpsertHour_LastWriteWins(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if err := db.UpsertHour(ctx, rec("2026-01-01", 10, 120)); err != nil {
		t.Fatalf("UpsertHour failed: %v", err)
	}
	if err := db.UpsertHour(ctx, rec("2026-01-01", 10, 45)); err != nil {
		t.Fatalf("UpsertHour failed: %v", err)
	}

	records, err := db.GetHourlyRecords(ctx, "2026-01-01")
	if err != nil {
		t.Fatalf("GetHourlyRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Steps != 45 {
		t.Errorf("Expected 45 steps, got %d", records[0].Steps)
	}
	if records[0].UpdatedAt.IsZero() {
		t.Error("Expected updated_at to be parsed")
	}
}

func TestUpsertHour_RejectsInvalid(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	invalid := []models.HourlyStepRecord{
		rec("", 1, 1),
		rec("2026-01-01", 24, 1),
		rec("2026-01-01", 2, -1),
	}
	for _, r := range invalid {
		if err := db.UpsertHour(context.Background(), r); err == nil {
			t.Errorf("Expected error for %+v", r)
		}
	}
}

func TestGetHourlyRecords_OrderedAndScoped(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	for _, r := range []models.HourlyStepRecord{
		rec("2026-01-01", 15, 30),
		rec("2026-01-01", 8, 10),
		rec("2026-01-02", 8, 99),
	} {
		if err := db.UpsertHour(ctx, r); err != nil {
			t.Fatalf("UpsertHour failed: %v", err)
		}
	}

	records, err := db.GetHourlyRecords(ctx, "2026-01-01")
	if err != nil {
		t.Fatalf("GetHourlyRecords failed: %v", err)
	}
	if len(records) != 2 || records[0].Hour != 8 || records[1].Hour != 15 {
		t.Errorf("Unexpected records %+v", records)
	}

	empty, err := db.GetHourlyRecords(ctx, "2025-06-01")
	if err != nil {
		t.Fatalf("GetHourlyRecords failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no records, got %d", len(empty))
	}
}

func TestGetDailyTotal(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	total, err := db.GetDailyTotal(ctx, "2026-01-01")
	if err != nil {
		t.Fatalf("GetDailyTotal failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected 0 for empty day, got %d", total)
	}

	for h, steps := range []int{5, 10, 20} {
		if err := db.UpsertHour(ctx, rec("2026-01-01", h, steps)); err != nil {
			t.Fatalf("UpsertHour failed: %v", err)
		}
	}
	total, err = db.GetDailyTotal(ctx, "2026-01-01")
	if err != nil {
		t.Fatalf("GetDailyTotal failed: %v", err)
	}
	if total != 35 {
		t.Errorf("Expected 35, got %d", total)
	}
}

func TestGetDailyTotalsAndListDays(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	for _, r := range []models.HourlyStepRecord{
		rec("2025-12-30", 9, 100),
		rec("2025-12-31", 9, 200),
		rec("2025-12-31", 10, 50),
		rec("2026-01-01", 9, 7),
	} {
		if err := db.UpsertHour(ctx, r); err != nil {
			t.Fatalf("UpsertHour failed: %v", err)
		}
	}

	totals, err := db.GetDailyTotals(ctx, "2025-12-31", "2026-01-01")
	if err != nil {
		t.Fatalf("GetDailyTotals failed: %v", err)
	}
	want := []models.DailyTotal{{Day: "2025-12-31", Steps: 250}, {Day: "2026-01-01", Steps: 7}}
	if len(totals) != len(want) {
		t.Fatalf("Expected %d totals, got %+v", len(want), totals)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Errorf("totals[%d] = %+v, want %+v", i, totals[i], want[i])
		}
	}

	days, err := db.ListDays(ctx, 2)
	if err != nil {
		t.Fatalf("ListDays failed: %v", err)
	}
	if len(days) != 2 || days[0] != "2026-01-01" || days[1] != "2025-12-31" {
		t.Errorf("Unexpected days %v", days)
	}
}

func TestDeleteOperations(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seed := func() {
		for _, r := range []models.HourlyStepRecord{
			rec("2025-12-01", 9, 1),
			rec("2025-12-31", 9, 2),
			rec("2026-01-01", 9, 3),
			rec("2026-01-01", 10, 4),
		} {
			if err := db.UpsertHour(ctx, r); err != nil {
				t.Fatalf("UpsertHour failed: %v", err)
			}
		}
	}
	count := func() int {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hourly_steps").Scan(&n); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		return n
	}

	seed()
	n, err := db.DeleteHour(ctx, "2026-01-01", 10)
	if err != nil || n != 1 {
		t.Errorf("DeleteHour = (%d, %v), want (1, nil)", n, err)
	}
	if got, _ := db.GetDailyTotal(ctx, "2026-01-01"); got != 3 {
		t.Errorf("Expected hour 9 to survive, total %d", got)
	}

	n, err = db.DeleteDay(ctx, "2026-01-01")
	if err != nil || n != 1 {
		t.Errorf("DeleteDay = (%d, %v), want (1, nil)", n, err)
	}

	seed()
	n, err = db.PurgeOlderThan(ctx, "2025-12-31")
	if err != nil || n != 1 {
		t.Errorf("PurgeOlderThan = (%d, %v), want (1, nil)", n, err)
	}
	if got, _ := db.GetDailyTotal(ctx, "2025-12-31"); got != 2 {
		t.Error("PurgeOlderThan must keep the boundary day")
	}

	n, err = db.DeleteAll(ctx)
	if err != nil || n != 3 {
		t.Errorf("DeleteAll = (%d, %v), want (3, nil)", n, err)
	}
	if count() != 0 {
		t.Error("Expected empty table after DeleteAll")
	}
}
