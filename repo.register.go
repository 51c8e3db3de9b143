package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var _ BookStorage = (*BookRegister)(nil) // ensure BookRegister implements BookStorage.

// BookRegister owns the ordered in-memory catalog and its backing file.
// It is not safe for concurrent use: a single session goroutine drives it.
type BookRegister struct {
	logger *zap.Logger
	config *RegisterConfig
	books  []Book
}

// NewBookRegister loads the configured file and provides a ready to use register.
// There is no empty fallback: a missing file fails the construction.
func NewBookRegister(logger *zap.Logger, config *RegisterConfig) (*BookRegister, error) {
	br := &BookRegister{
		logger: logger,
		config: config,
		books:  []Book{},
	}
	if err := br.Load(); err != nil {
		return nil, err
	}
	return br, nil
}

// Path returns the backing file location.
func (br *BookRegister) Path() string {
	return br.config.File
}

// Load replaces the catalog with the decoded content of the backing file.
// The current catalog is kept untouched if reading or decoding fails.
func (br *BookRegister) Load() error {
	file, err := os.Open(br.config.File)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, br.config.File, err)
	}
	defer file.Close()

	books, err := DecodeBooks(file)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", br.config.File, err)
	}
	br.books = books
	br.logger.Debug("register: catalog loaded", zap.String("file", br.config.File), zap.Int("count", len(books)))
	return nil
}

// Save encodes the catalog and fully replaces the backing file. The new
// content is written to a temporary file next to the real file then renamed.
// A symlinked path keeps its link and the file keeps its permissions.
func (br *BookRegister) Save() error {
	target, mode, err := br.saveTarget()
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", br.config.File, err)
	}
	dir, base := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary register file: %w", err)
	}
	tmpPath := tmp.Name()

	err = EncodeBooks(tmp, br.books)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpPath, mode)
	}
	if err == nil {
		err = os.Rename(tmpPath, target)
	}
	if err != nil {
		return errors.Join(fmt.Errorf("failed to save %s: %w", br.config.File, err), os.Remove(tmpPath))
	}
	br.logger.Debug("register: catalog saved", zap.String("file", target), zap.Int("count", len(br.books)))
	return nil
}

// saveTarget resolves the file to replace and the permissions to give it.
// A file that does not exist yet gets 0644.
func (br *BookRegister) saveTarget() (string, os.FileMode, error) {
	target, err := filepath.EvalSymlinks(br.config.File)
	if errors.Is(err, os.ErrNotExist) {
		return br.config.File, 0o644, nil
	}
	if err != nil {
		return "", 0, err
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", 0, err
	}
	return target, info.Mode().Perm(), nil
}

// Add appends a book at the end of the catalog.
func (br *BookRegister) Add(book Book) error {
	if br.config.UniqueISBN {
		if _, err := br.FindByISBN(book.ISBN); err == nil {
			return ErrDuplicateISBN
		}
	}
	br.books = append(br.books, book)
	return nil
}

// FindByISBN returns the first book whose isbn matches, ignoring case.
func (br *BookRegister) FindByISBN(isbn string) (Book, error) {
	if i := br.indexOfISBN(isbn); i >= 0 {
		return br.books[i], nil
	}
	return Book{}, ErrBookNotFound
}

// FindAllByAuthor returns, in catalog order, the books of the author ignoring case.
func (br *BookRegister) FindAllByAuthor(author string) []Book {
	books := []Book{}
	for _, b := range br.books {
		if strings.EqualFold(b.Author, author) {
			books = append(books, b)
		}
	}
	return books
}

// FindAllByGenre returns, in catalog order, the books of the genre.
func (br *BookRegister) FindAllByGenre(genre Genre) []Book {
	books := []Book{}
	for _, b := range br.books {
		if b.Genre == genre {
			books = append(books, b)
		}
	}
	return books
}

// Edit replaces oldVersion by newVersion. Both must share the same isbn.
// By default the old record is removed and the new one appended, so the
// edited book moves to the end of the catalog. With EditInPlace set the
// new record takes the position of the old one.
func (br *BookRegister) Edit(oldVersion, newVersion Book) error {
	if !oldVersion.SameISBN(newVersion) {
		return ErrISBNMismatch
	}
	i := br.indexOf(oldVersion)
	if i < 0 {
		return ErrBookNotFound
	}
	if br.config.EditInPlace {
		br.books[i] = newVersion
		return nil
	}
	br.books = append(br.books[:i], br.books[i+1:]...)
	br.books = append(br.books, newVersion)
	return nil
}

// Remove deletes the first book matching the isbn and returns it.
func (br *BookRegister) Remove(isbn string) (Book, error) {
	i := br.indexOfISBN(isbn)
	if i < 0 {
		return Book{}, ErrBookNotFound
	}
	book := br.books[i]
	br.books = append(br.books[:i], br.books[i+1:]...)
	return book, nil
}

// All returns a copy of the catalog in order.
func (br *BookRegister) All() []Book {
	books := make([]Book, len(br.books))
	copy(books, br.books)
	return books
}

// Len returns the number of books in the catalog.
func (br *BookRegister) Len() int {
	return len(br.books)
}

func (br *BookRegister) indexOfISBN(isbn string) int {
	for i, b := range br.books {
		if strings.EqualFold(b.ISBN, isbn) {
			return i
		}
	}
	return -1
}

func (br *BookRegister) indexOf(book Book) int {
	for i, b := range br.books {
		if b == book {
			return i
		}
	}
	return -1
}
