package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/goodtune/fieldtrack/internal/fieldwork"
	"github.com/goodtune/fieldtrack/internal/storage"
)

// Key layout:
//
//	sessions:{trainee}    hash  {date}/{id} -> record JSON
//	session_idx:{trainee} hash  {id}        -> {date}/{id}
//
// The index hash gives O(1) Get/Delete by record ID; date and month listings
// filter the main hash by field prefix, which is fine at the scale of one
// trainee's history.
type sessionStore struct {
	client *redis.Client
}

func (s *sessionStore) Insert(ctx context.Context, record fieldwork.SessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	field := sessionField(record.Date, record.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, sessionsKey(record.TraineeID), field, data)
	pipe.HSet(ctx, indexKey(record.TraineeID), record.ID, field)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *sessionStore) Get(ctx context.Context, traineeID, id string) (*fieldwork.SessionRecord, error) {
	field, err := s.client.HGet(ctx, indexKey(traineeID), id).Result()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("lookup session index: %w", err)
	}

	data, err := s.client.HGet(ctx, sessionsKey(traineeID), field).Result()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var record fieldwork.SessionRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &record, nil
}

func (s *sessionStore) Delete(ctx context.Context, traineeID, id string) error {
	field, err := s.client.HGet(ctx, indexKey(traineeID), id).Result()
	if err == redis.Nil {
		return storage.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("lookup session index: %w", err)
	}

	pipe := s.client.TxPipeline()
	deleted := pipe.HDel(ctx, sessionsKey(traineeID), field)
	pipe.HDel(ctx, indexKey(traineeID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted.Val() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *sessionStore) ListByDate(ctx context.Context, traineeID, date string) ([]fieldwork.SessionRecord, error) {
	return s.listByPrefix(ctx, traineeID, date+"/")
}

func (s *sessionStore) ListByMonth(ctx context.Context, traineeID, month string) ([]fieldwork.SessionRecord, error) {
	return s.listByPrefix(ctx, traineeID, month+"-")
}

func (s *sessionStore) ListByTrainee(ctx context.Context, traineeID string) ([]fieldwork.SessionRecord, error) {
	return s.listByPrefix(ctx, traineeID, "")
}

func (s *sessionStore) listByPrefix(ctx context.Context, traineeID, prefix string) ([]fieldwork.SessionRecord, error) {
	fields, err := s.client.HGetAll(ctx, sessionsKey(traineeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	records := make([]fieldwork.SessionRecord, 0, len(fields))
	for field, data := range fields {
		if prefix != "" && !strings.HasPrefix(field, prefix) {
			continue
		}
		var record fieldwork.SessionRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("unmarshal session %s: %w", field, err)
		}
		records = append(records, record)
	}
	storage.SortRecords(records)
	return records, nil
}

func sessionsKey(traineeID string) string { return "sessions:" + traineeID }

func indexKey(traineeID string) string { return "session_idx:" + traineeID }

func sessionField(date, id string) string { return date + "/" + id }
