package main

import "strings"

// Genre is the closed set of categories a book can belong to.
type Genre string

const (
	GenreCrime   Genre = "CRIME"
	GenreAction  Genre = "ACTION"
	GenreFantasy Genre = "FANTASY"
	GenreClassic Genre = "CLASSIC"
	GenreOther   Genre = "OTHER"
)

// Genres lists every known genre in menu order.
var Genres = []Genre{GenreCrime, GenreAction, GenreFantasy, GenreClassic, GenreOther}

// ParseGenre maps an exact-case genre name to its Genre value.
func ParseGenre(name string) (Genre, error) {
	for _, g := range Genres {
		if string(g) == name {
			return g, nil
		}
	}
	return "", &UnknownGenreError{Value: name}
}

// GenreNames returns the genres as a human readable list like `CRIME, ACTION or OTHER`.
func GenreNames() string {
	names := make([]string, len(Genres))
	for i, g := range Genres {
		names[i] = string(g)
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

// Book represents a book record. It is a value: edits build a new Book.
type Book struct {
	ISBN   string `json:"isbn" yaml:"isbn"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Pages  int    `json:"pages" yaml:"pages"`
	Genre  Genre  `json:"genre" yaml:"genre"`
}

// SameISBN reports whether both books share the same key, ignoring case.
func (b Book) SameISBN(other Book) bool {
	return strings.EqualFold(b.ISBN, other.ISBN)
}

// BookStorage defines possible operations on the book catalog.
type BookStorage interface {
	Add(book Book) error
	FindByISBN(isbn string) (Book, error)
	FindAllByAuthor(author string) []Book
	FindAllByGenre(genre Genre) []Book
	Edit(oldVersion, newVersion Book) error
	Remove(isbn string) (Book, error)
	All() []Book
	Save() error
	Len() int
}
