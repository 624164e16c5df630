package storage

import (
	"context"
	"errors"

	"github.com/goodtune/fieldtrack/internal/fieldwork"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Sessions() SessionStore
}

// SessionStore manages persisted session records. Records are immutable:
// there is no update operation, corrections are a delete followed by a fresh
// insert that passes the audit gate again.
//
// Implementations do not validate or audit; serialization of the
// read-audit-append sequence is the logbook's responsibility.
type SessionStore interface {
	Insert(ctx context.Context, record fieldwork.SessionRecord) error
	Get(ctx context.Context, traineeID, id string) (*fieldwork.SessionRecord, error)
	Delete(ctx context.Context, traineeID, id string) error

	// ListByDate returns the records for one trainee on one calendar date
	// (YYYY-MM-DD), ordered by start time.
	ListByDate(ctx context.Context, traineeID, date string) ([]fieldwork.SessionRecord, error)

	// ListByMonth returns the records for one trainee within one calendar
	// month (YYYY-MM), ordered by date then start time.
	ListByMonth(ctx context.Context, traineeID, month string) ([]fieldwork.SessionRecord, error)

	// ListByTrainee returns every record for one trainee, ordered by date
	// then start time.
	ListByTrainee(ctx context.Context, traineeID string) ([]fieldwork.SessionRecord, error)
}
