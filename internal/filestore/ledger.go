package filestore

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	domain "olaf/internal/domain"
)

const recordsBucket = "records"

// BoltLedger keeps upload metadata in a single bbolt file, the way
// katzenpost's boltuserdb keeps its user table (one bucket, one
// Update/View per call).
type BoltLedger struct {
	db *bolt.DB
}

// OpenBoltLedger opens (creating if absent) a bbolt database at path
// and ensures the records bucket exists.
func OpenBoltLedger(path string) (*BoltLedger, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("filestore: open ledger: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(recordsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("filestore: init ledger: %w", err)
	}
	return &BoltLedger{db: db}, nil
}

// Put stores rec under rec.ID, overwriting any existing entry.
func (l *BoltLedger) Put(rec domain.FileRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).Put([]byte(rec.ID), raw)
	})
}

// Get looks up the record for id.
func (l *BoltLedger) Get(id string) (domain.FileRecord, bool, error) {
	var rec domain.FileRecord
	var found bool
	err := l.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(recordsBucket)).Get([]byte(id))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &rec)
	})
	return rec, found, err
}

// Close releases the underlying bbolt file handle.
func (l *BoltLedger) Close() error {
	return l.db.Close()
}

var _ domain.FileLedger = (*BoltLedger)(nil)
