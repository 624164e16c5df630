package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goodtune/fieldtrack/internal/fieldwork"
	"github.com/goodtune/fieldtrack/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "fieldtrack.bolt"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func record(t *testing.T, id, traineeID, date, start, end string) fieldwork.SessionRecord {
	t.Helper()
	startTime, err := fieldwork.ParseTimeOfDay(start)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", start, err)
	}
	endTime, err := fieldwork.ParseTimeOfDay(end)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", end, err)
	}
	return fieldwork.SessionRecord{
		ID:              id,
		TraineeID:       traineeID,
		Date:            date,
		StartTime:       startTime,
		EndTime:         endTime,
		DurationHours:   2,
		ActivityType:    fieldwork.ActivityUnrestricted,
		SupervisionType: fieldwork.SupervisionNone,
	}
}

func TestSessionStoreInsertGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	want := record(t, "s1", "t-100", "2026-03-05", "09:00", "11:00")
	want.SupervisionType = fieldwork.SupervisionIndividual
	want.Supervisor = "Dr. Reyes"
	want.Notes = "first client session"

	if err := store.Sessions().Insert(ctx, want); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.Sessions().Get(ctx, "t-100", "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != want.ID || got.Date != want.Date || got.Supervisor != want.Supervisor {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
	if got.StartTime != want.StartTime || got.EndTime != want.EndTime {
		t.Errorf("times did not round-trip: %s-%s vs %s-%s", got.StartTime, got.EndTime, want.StartTime, want.EndTime)
	}
}

func TestSessionStoreGetMissing(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Sessions().Get(context.Background(), "t-100", "nope"); err != storage.ErrNotFound {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := record(t, "s1", "t-100", "2026-03-05", "09:00", "11:00")
	if err := store.Sessions().Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := store.Sessions().Delete(ctx, "t-100", "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Sessions().Get(ctx, "t-100", "s1"); err != storage.ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := store.Sessions().Delete(ctx, "t-100", "s1"); err != storage.ErrNotFound {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestSessionStoreListByDate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seed := []fieldwork.SessionRecord{
		record(t, "s2", "t-100", "2026-03-05", "13:00", "15:00"),
		record(t, "s1", "t-100", "2026-03-05", "09:00", "11:00"),
		record(t, "s3", "t-100", "2026-03-06", "09:00", "11:00"),
		record(t, "s4", "t-200", "2026-03-05", "09:00", "11:00"),
	}
	for _, rec := range seed {
		if err := store.Sessions().Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %s: %v", rec.ID, err)
		}
	}

	got, err := store.Sessions().ListByDate(ctx, "t-100", "2026-03-05")
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByDate returned %d records, want 2: %+v", len(got), got)
	}
	if got[0].ID != "s1" || got[1].ID != "s2" {
		t.Errorf("records not ordered by start time: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestSessionStoreListByMonth(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seed := []fieldwork.SessionRecord{
		record(t, "s1", "t-100", "2026-03-05", "09:00", "11:00"),
		record(t, "s2", "t-100", "2026-03-28", "09:00", "11:00"),
		record(t, "s3", "t-100", "2026-04-01", "09:00", "11:00"),
	}
	for _, rec := range seed {
		if err := store.Sessions().Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %s: %v", rec.ID, err)
		}
	}

	got, err := store.Sessions().ListByMonth(ctx, "t-100", "2026-03")
	if err != nil {
		t.Fatalf("ListByMonth: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByMonth returned %d records, want 2", len(got))
	}
	for _, rec := range got {
		if rec.Date[:7] != "2026-03" {
			t.Errorf("record %s from month %s leaked into the listing", rec.ID, rec.Date)
		}
	}
}

func TestSessionStoreListByTrainee(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seed := []fieldwork.SessionRecord{
		record(t, "s1", "t-100", "2026-03-05", "09:00", "11:00"),
		record(t, "s2", "t-100", "2026-04-01", "09:00", "11:00"),
		record(t, "s3", "t-200", "2026-03-05", "09:00", "11:00"),
	}
	for _, rec := range seed {
		if err := store.Sessions().Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %s: %v", rec.ID, err)
		}
	}

	got, err := store.Sessions().ListByTrainee(ctx, "t-100")
	if err != nil {
		t.Fatalf("ListByTrainee: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByTrainee returned %d records, want 2", len(got))
	}
	for _, rec := range got {
		if rec.TraineeID != "t-100" {
			t.Errorf("record for %s leaked into t-100 listing", rec.TraineeID)
		}
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldtrack.bolt")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Sessions().Insert(ctx, record(t, "s1", "t-100", "2026-03-05", "09:00", "11:00")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.Sessions().Get(ctx, "t-100", "s1"); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}
