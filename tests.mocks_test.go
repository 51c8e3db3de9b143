package main

import (
	"context"
	"sync"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockRegisterService struct {
	AddFunc             func(ctx context.Context, book Book) error
	EditFunc            func(ctx context.Context, oldVersion, newVersion Book) error
	RemoveFunc          func(ctx context.Context, isbn string) (Book, error)
	FindByISBNFunc      func(ctx context.Context, isbn string) (Book, error)
	FindAllByAuthorFunc func(ctx context.Context, author string) []Book
	FindAllByGenreFunc  func(ctx context.Context, genre Genre) []Book
	AllFunc             func(ctx context.Context) []Book
	SaveFunc            func(ctx context.Context) error
}

func (m *MockRegisterService) Add(ctx context.Context, book Book) error {
	return m.AddFunc(ctx, book)
}

func (m *MockRegisterService) Edit(ctx context.Context, oldVersion, newVersion Book) error {
	return m.EditFunc(ctx, oldVersion, newVersion)
}

func (m *MockRegisterService) Remove(ctx context.Context, isbn string) (Book, error) {
	return m.RemoveFunc(ctx, isbn)
}

func (m *MockRegisterService) FindByISBN(ctx context.Context, isbn string) (Book, error) {
	return m.FindByISBNFunc(ctx, isbn)
}

func (m *MockRegisterService) FindAllByAuthor(ctx context.Context, author string) []Book {
	return m.FindAllByAuthorFunc(ctx, author)
}

func (m *MockRegisterService) FindAllByGenre(ctx context.Context, genre Genre) []Book {
	return m.FindAllByGenreFunc(ctx, genre)
}

func (m *MockRegisterService) All(ctx context.Context) []Book {
	return m.AllFunc(ctx)
}

func (m *MockRegisterService) Save(ctx context.Context) error {
	return m.SaveFunc(ctx)
}

// MockQueue records pushed events and fails when PushErr is set.
type MockQueue struct {
	mu      sync.Mutex
	PushErr error
	Pushed  map[string][]ChangeEvent
}

func NewMockQueue() *MockQueue {
	return &MockQueue{Pushed: make(map[string][]ChangeEvent)}
}

func (mq *MockQueue) Push(_ context.Context, qid string, event ChangeEvent) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if mq.PushErr != nil {
		return mq.PushErr
	}
	mq.Pushed[qid] = append(mq.Pushed[qid], event)
	return nil
}

func (mq *MockQueue) Pop(ctx context.Context, _ ...string) (string, ChangeEvent, error) {
	<-ctx.Done()
	return "", ChangeEvent{}, ctx.Err()
}

// MockArchive implements a fake SnapshotArchiver and Journaler.
type MockArchive struct {
	mu         sync.Mutex
	ArchiveErr error
	Snapshots  []Snapshot
	Events     []ChangeEvent
}

func (ma *MockArchive) ArchiveSnapshot(_ context.Context, snap Snapshot) error {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	if ma.ArchiveErr != nil {
		return ma.ArchiveErr
	}
	ma.Snapshots = append(ma.Snapshots, snap)
	return nil
}

func (ma *MockArchive) ListSnapshots(_ context.Context) ([]Snapshot, error) {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	snaps := make([]Snapshot, len(ma.Snapshots))
	for i, s := range ma.Snapshots {
		s.Content = nil
		snaps[i] = s
	}
	return snaps, nil
}

func (ma *MockArchive) GetSnapshot(_ context.Context, id string) (Snapshot, error) {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	for _, s := range ma.Snapshots {
		if s.ID == id {
			return s, nil
		}
	}
	return Snapshot{}, ErrSnapshotNotFound
}

func (ma *MockArchive) ListJournal(_ context.Context, _ int) ([]ChangeEvent, error) {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	return append([]ChangeEvent{}, ma.Events...), nil
}

func (ma *MockArchive) AppendEvent(_ context.Context, event ChangeEvent) error {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	ma.Events = append(ma.Events, event)
	return nil
}

func (ma *MockArchive) events() []ChangeEvent {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	return append([]ChangeEvent{}, ma.Events...)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}
