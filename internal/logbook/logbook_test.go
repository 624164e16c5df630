package logbook

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/goodtune/fieldtrack/internal/audit"
	"github.com/goodtune/fieldtrack/internal/fieldwork"
	"github.com/goodtune/fieldtrack/internal/metrics"
	"github.com/goodtune/fieldtrack/internal/rules"
	"github.com/goodtune/fieldtrack/internal/storage"
	"github.com/goodtune/fieldtrack/internal/storage/bolt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	store, err := bolt.Open(filepath.Join(t.TempDir(), "fieldtrack.bolt"))
	if err != nil {
		t.Fatalf("bolt.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	loader, err := rules.NewLoader("", zerolog.Nop())
	if err != nil {
		t.Fatalf("rules.NewLoader: %v", err)
	}

	return New(store, audit.New(0), loader, zerolog.Nop())
}

func session(t *testing.T, date, start, end string, hours float64) fieldwork.SessionRecord {
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
		TraineeID:       "t-100",
		Date:            date,
		StartTime:       startTime,
		EndTime:         endTime,
		DurationHours:   hours,
		ActivityType:    fieldwork.ActivityUnrestricted,
		SupervisionType: fieldwork.SupervisionIndividual,
		Supervisor:      "Dr. Reyes",
	}
}

func TestAddSessionAssignsID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := svc.AddSession(ctx, session(t, "2026-03-05", "09:00", "11:00", 2))
	if err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if !result.Saved {
		t.Fatalf("expected save, got violations %v", result.Violations)
	}
	if result.Record.ID == "" {
		t.Error("saved record must carry a generated ID")
	}

	got, err := svc.GetSession(ctx, "t-100", result.Record.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Date != "2026-03-05" {
		t.Errorf("persisted record has date %s", got.Date)
	}
}

func TestAddSessionRejectsInvalidRecord(t *testing.T) {
	svc := newTestService(t)

	bad := session(t, "2026-03-05", "09:00", "11:00", 2)
	bad.DurationHours = -1

	if _, err := svc.AddSession(context.Background(), bad); err == nil {
		t.Error("expected validation error")
	}
}

func TestAddSessionAuditGate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.AddSession(ctx, session(t, "2026-03-05", "09:00", "12:00", 3))
	if err != nil || !first.Saved {
		t.Fatalf("first save failed: %v %v", err, first.Violations)
	}

	// Overlapping entry is refused and nothing is persisted. The rejection
	// is counted here, on the save attempt, not inside the audit check.
	rejectedBefore := testutil.ToFloat64(metrics.SessionsRejected.WithLabelValues(audit.RuleOverlap))
	clash, err := svc.AddSession(ctx, session(t, "2026-03-05", "11:00", "13:00", 2))
	if err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if clash.Saved {
		t.Fatal("overlapping session must not save")
	}
	if len(clash.Violations) == 0 {
		t.Error("rejection must carry violations")
	}
	if got := testutil.ToFloat64(metrics.SessionsRejected.WithLabelValues(audit.RuleOverlap)); got != rejectedBefore+1 {
		t.Errorf("overlap rejection counter = %v, want %v", got, rejectedBefore+1)
	}

	records, err := svc.ListSessions(ctx, "t-100")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("store holds %d records, want 1", len(records))
	}

	// A non-clashing entry on the same day still goes through.
	ok, err := svc.AddSession(ctx, session(t, "2026-03-05", "13:00", "15:00", 2))
	if err != nil || !ok.Saved {
		t.Errorf("non-overlapping save failed: %v %v", err, ok.Violations)
	}
}

func TestDeleteThenReinsertPassesAudit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.AddSession(ctx, session(t, "2026-03-05", "09:00", "12:00", 3))
	if err != nil || !saved.Saved {
		t.Fatalf("save failed: %v %v", err, saved.Violations)
	}

	// A correction of the same interval must first remove the old entry.
	if err := svc.DeleteSession(ctx, "t-100", saved.Record.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	corrected, err := svc.AddSession(ctx, session(t, "2026-03-05", "09:00", "12:30", 3.5))
	if err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if !corrected.Saved {
		t.Errorf("corrected entry must save after deletion, got %v", corrected.Violations)
	}
}

func TestDeleteSessionMissing(t *testing.T) {
	svc := newTestService(t)

	if err := svc.DeleteSession(context.Background(), "t-100", "nope"); err != storage.ErrNotFound {
		t.Errorf("DeleteSession = %v, want ErrNotFound", err)
	}
}

func TestConcurrentSavesSerialized(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// All candidates occupy the same interval; exactly one may win.
	const attempts = 8
	var wg sync.WaitGroup
	saved := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.AddSession(ctx, session(t, "2026-03-05", "09:00", "12:00", 3))
			if err != nil {
				t.Errorf("AddSession: %v", err)
				return
			}
			saved <- result.Saved
		}()
	}
	wg.Wait()
	close(saved)

	wins := 0
	for ok := range saved {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("%d concurrent identical saves succeeded, want exactly 1", wins)
	}

	records, err := svc.ListSessions(ctx, "t-100")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("store holds %d records, want 1", len(records))
	}
}

func TestConcurrentSavesDifferentTrainees(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	const trainees = 5
	var wg sync.WaitGroup
	for i := 0; i < trainees; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rec := session(t, "2026-03-05", "09:00", "12:00", 3)
			rec.TraineeID = fmt.Sprintf("t-%d", n)
			result, err := svc.AddSession(ctx, rec)
			if err != nil || !result.Saved {
				t.Errorf("trainee %d save failed: %v %v", n, err, result.Violations)
			}
		}(i)
	}
	wg.Wait()
}

func TestReport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	entries := []struct {
		date, start, end string
		hours            float64
		supervision      fieldwork.SupervisionType
	}{
		{"2026-03-02", "09:00", "17:00", 8, fieldwork.SupervisionNone},
		{"2026-03-03", "09:00", "17:00", 8, fieldwork.SupervisionNone},
		{"2026-03-04", "09:00", "11:00", 2, fieldwork.SupervisionIndividual},
		{"2026-04-01", "09:00", "17:00", 8, fieldwork.SupervisionNone},
	}
	for _, e := range entries {
		rec := session(t, e.date, e.start, e.end, e.hours)
		rec.SupervisionType = e.supervision
		if e.supervision == fieldwork.SupervisionNone {
			rec.Supervisor = ""
		}
		result, err := svc.AddSession(ctx, rec)
		if err != nil || !result.Saved {
			t.Fatalf("seed save failed: %v %v", err, result.Violations)
		}
	}

	report, err := svc.Report(ctx, "t-100", "2026-03", "2022", rules.ModeStandard)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	// No parameter file is configured, so the builtin bundle applies and
	// the report says so.
	if report.RulesSource != rules.SourceBuiltinDefault {
		t.Errorf("RulesSource = %v, want %v", report.RulesSource, rules.SourceBuiltinDefault)
	}
	if report.SessionCount != 3 {
		t.Errorf("SessionCount = %d, want 3 (April entry excluded)", report.SessionCount)
	}
	if report.Stats.TotalHours != 18 {
		t.Errorf("TotalHours = %v, want 18", report.Stats.TotalHours)
	}
	if report.Stats.SupervisedHours != 2 {
		t.Errorf("SupervisedHours = %v, want 2", report.Stats.SupervisedHours)
	}
	if report.Stats.IsCompliantMinHours {
		t.Error("18h must fail the 20h monthly minimum")
	}
	if !report.Stats.IsCompliantSupervision {
		t.Error("2/18 supervision must satisfy the 0.05 Standard ratio")
	}
}
