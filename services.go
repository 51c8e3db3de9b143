package main

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type RegisterServiceProvider interface {
	Add(ctx context.Context, book Book) error
	Edit(ctx context.Context, oldVersion, newVersion Book) error
	Remove(ctx context.Context, isbn string) (Book, error)
	FindByISBN(ctx context.Context, isbn string) (Book, error)
	FindAllByAuthor(ctx context.Context, author string) []Book
	FindAllByGenre(ctx context.Context, genre Genre) []Book
	All(ctx context.Context) []Book
	Save(ctx context.Context) error
}

// SessionStats holds the session counters. They are only updated by the
// session goroutine but may be read concurrently by the ops endpoints.
type SessionStats struct {
	started time.Time
	loaded  int
	books   atomic.Int64
	added   atomic.Uint64
	edited  atomic.Uint64
	removed atomic.Uint64
	saved   atomic.Uint64
	failed  atomic.Uint64
}

func NewSessionStats(started time.Time, loaded int) *SessionStats {
	s := &SessionStats{started: started, loaded: loaded}
	s.books.Store(int64(loaded))
	return s
}

// Values returns a point in time copy of the counters.
func (s *SessionStats) Values() map[string]interface{} {
	return map[string]interface{}{
		"started": s.started.Format(time.RFC1123),
		"loaded":  s.loaded,
		"books":   s.books.Load(),
		"added":   s.added.Load(),
		"edited":  s.edited.Load(),
		"removed": s.removed.Load(),
		"saved":   s.saved.Load(),
		"failed":  s.failed.Load(),
	}
}

type RegisterService struct {
	logger   *zap.Logger
	clock    Clocker
	ids      UIDHandler
	register BookStorage
	queue    Queuer
	archive  SnapshotArchiver
	stats    *SessionStats
	file     string
}

// NewRegisterService wires the register with its journal. Both queue
// and archive are optional and may be nil when the journal is disabled.
func NewRegisterService(logger *zap.Logger, config *Config, clock Clocker, ids UIDHandler, register BookStorage, queue Queuer, archive SnapshotArchiver, stats *SessionStats) *RegisterService {
	return &RegisterService{
		logger:   logger,
		clock:    clock,
		ids:      ids,
		register: register,
		queue:    queue,
		archive:  archive,
		stats:    stats,
		file:     config.Register.File,
	}
}

// publish pushes a change event to the journal queue. Failures are only
// logged: the catalog change already happened.
func (rs *RegisterService) publish(ctx context.Context, event ChangeEvent) {
	if rs.queue == nil {
		return
	}
	event.ID = rs.ids.Generate(EventIDPrefix)
	event.At = rs.clock.Now()
	event.Count = rs.register.Len()
	if err := rs.queue.Push(ctx, JournalQueue, event); err != nil {
		rs.logger.Error("service: failed to push event to queue", zap.String("kind", event.Kind), zap.Error(err))
	}
}

func (rs *RegisterService) failed(op string, err error, fields ...zap.Field) {
	rs.stats.failed.Add(1)
	rs.logger.Warn("service: "+op+" failed", append(fields, zap.Error(err))...)
}

func (rs *RegisterService) Add(ctx context.Context, book Book) error {
	if err := rs.register.Add(book); err != nil {
		rs.failed("add", err, zap.String("isbn", book.ISBN))
		return err
	}
	rs.stats.added.Add(1)
	rs.stats.books.Store(int64(rs.register.Len()))
	rs.logger.Info("service: book added", zap.String("isbn", book.ISBN))
	rs.publish(ctx, ChangeEvent{Kind: CreateEvent, ISBN: book.ISBN, Book: &book})
	return nil
}

func (rs *RegisterService) Edit(ctx context.Context, oldVersion, newVersion Book) error {
	if err := rs.register.Edit(oldVersion, newVersion); err != nil {
		rs.failed("edit", err, zap.String("old.isbn", oldVersion.ISBN), zap.String("new.isbn", newVersion.ISBN))
		return err
	}
	rs.stats.edited.Add(1)
	rs.logger.Info("service: book updated", zap.String("isbn", newVersion.ISBN))
	rs.publish(ctx, ChangeEvent{Kind: UpdateEvent, ISBN: newVersion.ISBN, Book: &newVersion, Previous: &oldVersion})
	return nil
}

func (rs *RegisterService) Remove(ctx context.Context, isbn string) (Book, error) {
	book, err := rs.register.Remove(isbn)
	if err != nil {
		rs.failed("remove", err, zap.String("isbn", isbn))
		return book, err
	}
	rs.stats.removed.Add(1)
	rs.stats.books.Store(int64(rs.register.Len()))
	rs.logger.Info("service: book removed", zap.String("isbn", book.ISBN))
	rs.publish(ctx, ChangeEvent{Kind: DeleteEvent, ISBN: book.ISBN, Previous: &book})
	return book, nil
}

func (rs *RegisterService) FindByISBN(_ context.Context, isbn string) (Book, error) {
	return rs.register.FindByISBN(isbn)
}

func (rs *RegisterService) FindAllByAuthor(_ context.Context, author string) []Book {
	return rs.register.FindAllByAuthor(author)
}

func (rs *RegisterService) FindAllByGenre(_ context.Context, genre Genre) []Book {
	return rs.register.FindAllByGenre(genre)
}

func (rs *RegisterService) All(_ context.Context) []Book {
	return rs.register.All()
}

// Save persists the catalog then archives a copy of the written content.
// An archive failure does not fail the save.
func (rs *RegisterService) Save(ctx context.Context) error {
	if err := rs.register.Save(); err != nil {
		rs.failed("save", err, zap.String("file", rs.file))
		return err
	}
	rs.stats.saved.Add(1)
	rs.logger.Info("service: catalog saved", zap.String("file", rs.file), zap.Int("count", rs.register.Len()))

	if rs.archive != nil {
		content := MarshalBooks(rs.register.All())
		snap := Snapshot{
			ID:      rs.ids.Generate(SnapshotIDPrefix),
			File:    rs.file,
			Count:   rs.register.Len(),
			Size:    len(content),
			SavedAt: rs.clock.Now(),
			Content: content,
		}
		if err := rs.archive.ArchiveSnapshot(ctx, snap); err != nil {
			rs.logger.Error("service: failed to archive snapshot", zap.String("snapshot.id", snap.ID), zap.Error(err))
		}
	}
	rs.publish(ctx, ChangeEvent{Kind: SaveEvent})
	return nil
}
