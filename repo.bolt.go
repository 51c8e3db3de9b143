package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

var (
	_ Journaler        = (*BoltArchive)(nil)
	_ SnapshotArchiver = (*BoltArchive)(nil)
)

// Snapshot is one archived copy of the register file content taken at save time.
type Snapshot struct {
	ID      string    `json:"id"`
	File    string    `json:"file"`
	Count   int       `json:"count"`
	Size    int       `json:"size"`
	SavedAt time.Time `json:"savedAt"`
	Content []byte    `json:"content,omitempty"`
}

// SnapshotArchiver stores and lists saved register contents.
type SnapshotArchiver interface {
	ArchiveSnapshot(ctx context.Context, snap Snapshot) error
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (Snapshot, error)
	ListJournal(ctx context.Context, limit int) ([]ChangeEvent, error)
}

// BoltArchive keeps the change journal and the save snapshots in a bolt file.
type BoltArchive struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the buckets then provides a ready to use client.
func GetBoltDBClient(config *BoltDBConfig) (*bolt.DB, error) {
	db, err := bolt.Open(config.FilePath, 0o600, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{config.JournalBucket, config.SnapshotBucket} {
			if _, errB := tx.CreateBucketIfNotExists([]byte(name)); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up buckets: %v", err)
	}
	return db, nil
}

// NewBoltArchive provides an instance of bolt-based archive.
func NewBoltArchive(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) *BoltArchive {
	return &BoltArchive{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// Close shuts down the bolt-based archive.
func (ba *BoltArchive) Close() error {
	return ba.client.Close()
}

// sequenceKey encodes a bucket sequence so that keys sort in insertion order.
func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// AppendEvent inserts a change event at the end of the journal.
func (ba *BoltArchive) AppendEvent(_ context.Context, event ChangeEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return ba.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ba.config.JournalBucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), eventBytes)
	})
}

// ListJournal returns, oldest first, the last limit journal events.
// A non positive limit returns the whole journal.
func (ba *BoltArchive) ListJournal(_ context.Context, limit int) ([]ChangeEvent, error) {
	tx, err := ba.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := tx.Bucket([]byte(ba.config.JournalBucket)).Cursor()
	events := []ChangeEvent{}
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		if limit > 0 && len(events) == limit {
			break
		}
		var event ChangeEvent
		if err = json.Unmarshal(v, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// ArchiveSnapshot stores a snapshot and drops the oldest ones beyond the configured maximum.
func (ba *BoltArchive) ArchiveSnapshot(_ context.Context, snap Snapshot) error {
	snapBytes, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return ba.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ba.config.SnapshotBucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err = b.Put(sequenceKey(seq), snapBytes); err != nil {
			return err
		}
		if ba.config.MaxSnapshots <= 0 {
			return nil
		}
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for i := 0; i < len(keys)-ba.config.MaxSnapshots; i++ {
			if err = b.Delete(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListSnapshots returns the archived snapshots, oldest first, without their content.
func (ba *BoltArchive) ListSnapshots(_ context.Context) ([]Snapshot, error) {
	tx, err := ba.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := tx.Bucket([]byte(ba.config.SnapshotBucket)).Cursor()
	snaps := []Snapshot{}
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var snap Snapshot
		if err = json.Unmarshal(v, &snap); err != nil {
			return nil, err
		}
		snap.Content = nil
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// GetSnapshot retrieves an archived snapshot with its content based on its ID.
func (ba *BoltArchive) GetSnapshot(_ context.Context, id string) (Snapshot, error) {
	var snap Snapshot
	tx, err := ba.client.Begin(false)
	if err != nil {
		return snap, err
	}
	defer tx.Rollback()

	c := tx.Bucket([]byte(ba.config.SnapshotBucket)).Cursor()
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		var found Snapshot
		if err = json.Unmarshal(v, &found); err != nil {
			return snap, err
		}
		if found.ID == id {
			return found, nil
		}
	}
	return snap, ErrSnapshotNotFound
}
