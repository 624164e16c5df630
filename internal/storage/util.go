package storage

import (
	"os"
	"sort"

	"github.com/goodtune/fieldtrack/internal/fieldwork"
)

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// SortRecords orders records by date, then start time, then ID. Backends
// call this so listing order is stable regardless of the underlying key
// layout.
func SortRecords(records []fieldwork.SessionRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		if records[i].StartTime != records[j].StartTime {
			return records[i].StartTime.Before(records[j].StartTime)
		}
		return records[i].ID < records[j].ID
	})
}
