package bolt

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/goodtune/fieldtrack/internal/fieldwork"
	"github.com/goodtune/fieldtrack/internal/storage"
)

type sessionStore struct {
	db *bbolt.DB
}

func (s *sessionStore) Insert(ctx context.Context, record fieldwork.SessionRecord) error {
	data, err := marshal(record)
	if err != nil {
		return err
	}
	key := sessionKey(record.TraineeID, record.Date, record.ID)
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sessions := tx.Bucket([]byte(bucketSessions))
		if sessions == nil {
			return fmt.Errorf("sessions bucket missing")
		}
		index := tx.Bucket([]byte(bucketSessionIndex))
		if index == nil {
			return fmt.Errorf("session index bucket missing")
		}
		if err := sessions.Put([]byte(key), data); err != nil {
			return err
		}
		return index.Put([]byte(indexKey(record.TraineeID, record.ID)), []byte(key))
	})
}

func (s *sessionStore) Get(ctx context.Context, traineeID, id string) (*fieldwork.SessionRecord, error) {
	var record *fieldwork.SessionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		key, err := lookupKey(tx, traineeID, id)
		if err != nil {
			return err
		}
		sessions := tx.Bucket([]byte(bucketSessions))
		if sessions == nil {
			return storage.ErrNotFound
		}
		value := sessions.Get(key)
		if value == nil {
			return storage.ErrNotFound
		}
		var result fieldwork.SessionRecord
		if err := unmarshal(value, &result); err != nil {
			return err
		}
		record = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *sessionStore) Delete(ctx context.Context, traineeID, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		key, err := lookupKey(tx, traineeID, id)
		if err != nil {
			return err
		}
		sessions := tx.Bucket([]byte(bucketSessions))
		if sessions == nil {
			return storage.ErrNotFound
		}
		if sessions.Get(key) == nil {
			return storage.ErrNotFound
		}
		if err := sessions.Delete(key); err != nil {
			return err
		}
		index := tx.Bucket([]byte(bucketSessionIndex))
		if index == nil {
			return nil
		}
		return index.Delete([]byte(indexKey(traineeID, id)))
	})
}

func (s *sessionStore) ListByDate(ctx context.Context, traineeID, date string) ([]fieldwork.SessionRecord, error) {
	records, err := scanPrefix[fieldwork.SessionRecord](ctx, s.db, bucketSessions, traineeID+"/"+date+"/")
	if err != nil {
		return nil, err
	}
	storage.SortRecords(records)
	return records, nil
}

func (s *sessionStore) ListByMonth(ctx context.Context, traineeID, month string) ([]fieldwork.SessionRecord, error) {
	records, err := scanPrefix[fieldwork.SessionRecord](ctx, s.db, bucketSessions, traineeID+"/"+month+"-")
	if err != nil {
		return nil, err
	}
	storage.SortRecords(records)
	return records, nil
}

func (s *sessionStore) ListByTrainee(ctx context.Context, traineeID string) ([]fieldwork.SessionRecord, error) {
	records, err := scanPrefix[fieldwork.SessionRecord](ctx, s.db, bucketSessions, traineeID+"/")
	if err != nil {
		return nil, err
	}
	storage.SortRecords(records)
	return records, nil
}

func lookupKey(tx *bbolt.Tx, traineeID, id string) ([]byte, error) {
	index := tx.Bucket([]byte(bucketSessionIndex))
	if index == nil {
		return nil, storage.ErrNotFound
	}
	key := index.Get([]byte(indexKey(traineeID, id)))
	if key == nil {
		return nil, storage.ErrNotFound
	}
	return key, nil
}

func sessionKey(traineeID, date, id string) string {
	return fmt.Sprintf("%s/%s/%s", traineeID, date, id)
}

func indexKey(traineeID, id string) string {
	return fmt.Sprintf("%s/%s", traineeID, id)
}
