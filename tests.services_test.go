package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testService struct {
	service  *RegisterService
	register *BookRegister
	queue    *MockQueue
	archive  *MockArchive
	stats    *SessionStats
}

func newTestService(t *testing.T, content string) *testService {
	t.Helper()
	br := newTestRegister(t, content, RegisterConfig{})
	clock := NewMockClocker()
	ts := &testService{
		register: br,
		queue:    NewMockQueue(),
		archive:  &MockArchive{},
		stats:    NewSessionStats(clock.Now(), br.Len()),
	}
	config := &Config{Register: RegisterConfig{File: br.Path()}}
	ts.service = NewRegisterService(zap.NewNop(), config, clock, NewMockUIDHandler("abc", true), br, ts.queue, ts.archive, ts.stats)
	return ts
}

func TestRegisterService_Add(t *testing.T) {
	ts := newTestService(t, testBooksText)
	ctx := context.Background()

	require.NoError(t, ts.service.Add(ctx, Book{ISBN: "9", Title: "T", Author: "A", Pages: 9, Genre: GenreAction}))

	events := ts.queue.Pushed[JournalQueue]
	require.Len(t, events, 1)
	assert.Equal(t, CreateEvent, events[0].Kind)
	assert.Equal(t, "e:abc", events[0].ID)
	assert.Equal(t, "9", events[0].ISBN)
	assert.Equal(t, 4, events[0].Count)
	assert.Equal(t, NewMockClocker().Now(), events[0].At)

	values := ts.stats.Values()
	assert.Equal(t, uint64(1), values["added"])
	assert.Equal(t, int64(4), values["books"])
}

func TestRegisterService_Failures(t *testing.T) {
	ts := newTestService(t, testBooksText)
	ctx := context.Background()

	_, err := ts.service.Remove(ctx, "missing")
	assert.ErrorIs(t, err, ErrBookNotFound)

	changed := testBooks[0]
	changed.ISBN = "other"
	err = ts.service.Edit(ctx, testBooks[0], changed)
	assert.ErrorIs(t, err, ErrISBNMismatch)

	assert.Empty(t, ts.queue.Pushed)
	assert.Equal(t, uint64(2), ts.stats.Values()["failed"])
}

func TestRegisterService_EditAndRemove(t *testing.T) {
	ts := newTestService(t, testBooksText)
	ctx := context.Background()

	edited := testBooks[1]
	edited.Pages = 500
	require.NoError(t, ts.service.Edit(ctx, testBooks[1], edited))
	require.Len(t, ts.queue.Pushed[JournalQueue], 1)
	event := ts.queue.Pushed[JournalQueue][0]
	assert.Equal(t, UpdateEvent, event.Kind)
	assert.Equal(t, edited, *event.Book)
	assert.Equal(t, testBooks[1], *event.Previous)

	removed, err := ts.service.Remove(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, edited, removed)
	events := ts.queue.Pushed[JournalQueue]
	require.Len(t, events, 2)
	assert.Equal(t, DeleteEvent, events[1].Kind)
	assert.Equal(t, 2, events[1].Count)
}

func TestRegisterService_Save(t *testing.T) {
	t.Run("archives a snapshot", func(t *testing.T) {
		ts := newTestService(t, testBooksText)
		require.NoError(t, ts.service.Save(context.Background()))

		require.Len(t, ts.archive.Snapshots, 1)
		snap := ts.archive.Snapshots[0]
		assert.Equal(t, "s:abc", snap.ID)
		assert.Equal(t, 3, snap.Count)
		assert.Equal(t, testBooksText, string(snap.Content))
		assert.Equal(t, len(testBooksText), snap.Size)
		events := ts.queue.Pushed[JournalQueue]
		require.Len(t, events, 1)
		assert.Equal(t, SaveEvent, events[0].Kind)
	})

	t.Run("archive failure does not fail the save", func(t *testing.T) {
		ts := newTestService(t, testBooksText)
		ts.archive.ArchiveErr = errors.New("disk full")
		assert.NoError(t, ts.service.Save(context.Background()))
		assert.Equal(t, uint64(1), ts.stats.Values()["saved"])
	})

	t.Run("queue failure does not fail the change", func(t *testing.T) {
		ts := newTestService(t, testBooksText)
		ts.queue.PushErr = ErrQueueFull
		assert.NoError(t, ts.service.Add(context.Background(), dune))
		assert.Equal(t, 4, ts.register.Len())
	})
}

// TestRegisterService_WithoutJournal ensures the service works without queue nor archive.
func TestRegisterService_WithoutJournal(t *testing.T) {
	br := newTestRegister(t, "", RegisterConfig{})
	config := &Config{Register: RegisterConfig{File: br.Path()}}
	rs := NewRegisterService(zap.NewNop(), config, NewMockClocker(), NewMockUIDHandler("abc", true), br, nil, nil, NewSessionStats(NewMockClocker().Now(), 0))

	require.NoError(t, rs.Add(context.Background(), dune))
	require.NoError(t, rs.Save(context.Background()))
	assert.Equal(t, []Book{dune}, rs.All(context.Background()))
}
