// Package logbook coordinates session persistence with save-time auditing
// and monthly compliance reporting. All writes for a trainee pass through
// a per-trainee lock so the audit always sees a complete same-day history.
package logbook

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goodtune/fieldtrack/internal/audit"
	"github.com/goodtune/fieldtrack/internal/compliance"
	"github.com/goodtune/fieldtrack/internal/fieldwork"
	"github.com/goodtune/fieldtrack/internal/metrics"
	"github.com/goodtune/fieldtrack/internal/rules"
	"github.com/goodtune/fieldtrack/internal/storage"
)

// SaveResult reports the outcome of an attempted session save.
type SaveResult struct {
	Record     fieldwork.SessionRecord `json:"record"`
	Saved      bool                    `json:"saved"`
	Violations []string                `json:"violations,omitempty"`
}

// MonthlyReport bundles the computed statistics for one trainee-month
// with the ruleset that produced them.
type MonthlyReport struct {
	TraineeID    string                  `json:"trainee_id"`
	Month        string                  `json:"month"`
	Mode         rules.Mode              `json:"mode"`
	RulesVersion string                  `json:"rules_version"`
	RulesSource  rules.Source            `json:"rules_source"`
	SessionCount int                     `json:"session_count"`
	Stats        compliance.MonthlyStats `json:"stats"`
}

// Service is the central coordinator for session writes and reports.
type Service struct {
	store   storage.Store
	auditor *audit.Auditor
	loader  *rules.Loader
	logger  zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a logbook service backed by the given store.
func New(store storage.Store, auditor *audit.Auditor, loader *rules.Loader, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		auditor: auditor,
		loader:  loader,
		logger:  logger.With().Str("component", "logbook").Logger(),
		locks:   make(map[string]*sync.Mutex),
	}
}

// traineeLock returns the mutex serializing writes for one trainee.
func (s *Service) traineeLock(traineeID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[traineeID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[traineeID] = lock
	}
	return lock
}

// AddSession validates and audits a candidate record against the trainee's
// same-day history, then persists it. When the audit fails the record is
// not saved and the violations are returned with Saved set to false.
func (s *Service) AddSession(ctx context.Context, record fieldwork.SessionRecord) (SaveResult, error) {
	if err := record.Validate(); err != nil {
		return SaveResult{}, fmt.Errorf("invalid session record: %w", err)
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	lock := s.traineeLock(record.TraineeID)
	lock.Lock()
	defer lock.Unlock()

	history, err := s.store.Sessions().ListByDate(ctx, record.TraineeID, record.Date)
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to load same-day history: %w", err)
	}

	safe, violations := s.auditor.CheckSaveSafety(record, history)
	if !safe {
		for _, v := range violations {
			metrics.SessionsRejected.WithLabelValues(audit.RuleOf(v)).Inc()
		}
		s.logger.Warn().
			Str("trainee_id", record.TraineeID).
			Str("date", record.Date).
			Strs("violations", violations).
			Msg("Session rejected by save-time audit")
		return SaveResult{Record: record, Saved: false, Violations: violations}, nil
	}

	if err := s.store.Sessions().Insert(ctx, record); err != nil {
		return SaveResult{}, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.SessionsSaved.WithLabelValues(string(record.ActivityType), string(record.SupervisionType)).Inc()
	metrics.SessionHoursLogged.WithLabelValues(string(record.SupervisionType)).Add(record.DurationHours)

	s.logger.Info().
		Str("trainee_id", record.TraineeID).
		Str("session_id", record.ID).
		Str("date", record.Date).
		Float64("duration_hours", record.DurationHours).
		Msg("Session saved")

	return SaveResult{Record: record, Saved: true}, nil
}

// GetSession loads a single session by ID.
func (s *Service) GetSession(ctx context.Context, traineeID, id string) (*fieldwork.SessionRecord, error) {
	return s.store.Sessions().Get(ctx, traineeID, id)
}

// DeleteSession removes a session, typically as the first half of a
// correction (delete then re-add, so the replacement is audited against
// the history without the old entry).
func (s *Service) DeleteSession(ctx context.Context, traineeID, id string) error {
	lock := s.traineeLock(traineeID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Sessions().Delete(ctx, traineeID, id); err != nil {
		return err
	}

	s.logger.Info().
		Str("trainee_id", traineeID).
		Str("session_id", id).
		Msg("Session deleted")
	return nil
}

// ListSessions returns all sessions for a trainee, sorted.
func (s *Service) ListSessions(ctx context.Context, traineeID string) ([]fieldwork.SessionRecord, error) {
	return s.store.Sessions().ListByTrainee(ctx, traineeID)
}

// ListSessionsByMonth returns the trainee's sessions for one "YYYY-MM" month.
func (s *Service) ListSessionsByMonth(ctx context.Context, traineeID, month string) ([]fieldwork.SessionRecord, error) {
	return s.store.Sessions().ListByMonth(ctx, traineeID, month)
}

// Report computes monthly statistics for a trainee under the named ruleset
// version and supervision mode. An unknown version falls back per the
// loader's substitution chain; the report carries the source so callers
// can tell which rules actually applied.
func (s *Service) Report(ctx context.Context, traineeID, month, version string, mode rules.Mode) (MonthlyReport, error) {
	records, err := s.store.Sessions().ListByMonth(ctx, traineeID, month)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("failed to load sessions for %s: %w", month, err)
	}

	ruleset, source := s.loader.Resolve(version)
	engine := compliance.NewEngine(ruleset, mode)
	stats := engine.CalculateMonthlyStats(records)

	metrics.ReportsComputed.WithLabelValues(string(mode)).Inc()

	return MonthlyReport{
		TraineeID:    traineeID,
		Month:        month,
		Mode:         mode,
		RulesVersion: ruleset.Version,
		RulesSource:  source,
		SessionCount: len(records),
		Stats:        stats,
	}, nil
}
