package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const (
	MinPages = 1
	MaxPages = 10000
)

const (
	choiceListAll = iota + 1
	choiceAdd
	choiceEdit
	choiceByGenre
	choiceByAuthor
	choiceByISBN
	choiceRemove
	choiceQuit
)

var mainMenu = []string{
	"1: All books",
	"2: Add book",
	"3: Edit book",
	"4: Find book by genre",
	"5: Find book by author",
	"6: Find book by ISBN",
	"7: Remove book",
	"8: Quit",
}

// Shell is the interactive menu driving a register session. It supplies
// the register with values already validated by its prompts.
type Shell struct {
	logger  *zap.Logger
	service RegisterServiceProvider
	in      io.Reader
	out     io.Writer
	lines   <-chan inputLine
}

func NewShell(logger *zap.Logger, service RegisterServiceProvider, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		logger:  logger,
		service: service,
		in:      in,
		out:     out,
	}
}

// Run loops on the main menu until the user quits. Quitting saves the
// catalog. The session ends without saving with ErrSessionAborted when
// the input is exhausted or the context is done, and with ErrInputFailed
// when the input cannot be read.
func (sh *Shell) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	sh.lines = scanLines(sh.in, done)

	for {
		sh.printMainMenu()
		choice, err := sh.readInt(ctx, 1, len(mainMenu), "Make your choice:")
		if err != nil {
			return err
		}

		switch choice {
		case choiceListAll:
			sh.printAllBooks(ctx)
		case choiceAdd:
			err = sh.addBook(ctx)
		case choiceEdit:
			err = sh.editBook(ctx)
		case choiceByGenre:
			err = sh.printBooksByGenre(ctx)
		case choiceByAuthor:
			err = sh.printBooksByAuthor(ctx)
		case choiceByISBN:
			err = sh.printBookByISBN(ctx)
		case choiceRemove:
			err = sh.removeBook(ctx)
		case choiceQuit:
			return sh.endSession(ctx)
		}
		if err != nil {
			return err
		}
	}
}

// maxLineLength bounds one input line. Longer lines are discarded and
// the prompt asks again.
const maxLineLength = 64 * 1024

// inputLine is one line read from the session input.
type inputLine struct {
	text    string
	tooLong bool
	err     error
}

// scanLines feeds the input lines to the returned channel, which is
// closed once the input is exhausted or after a read error was sent.
func scanLines(in io.Reader, done <-chan struct{}) <-chan inputLine {
	lines := make(chan inputLine)
	go func() {
		defer close(lines)
		r := bufio.NewReader(in)
		for {
			line, ok := nextLine(r)
			if !ok {
				return
			}
			select {
			case lines <- line:
			case <-done:
				return
			}
			if line.err != nil {
				return
			}
		}
	}()
	return lines
}

// nextLine reads up to the next line terminator. It reports false
// once the input is exhausted.
func nextLine(r *bufio.Reader) (inputLine, bool) {
	var line inputLine
	var buf []byte
	for {
		frag, isPrefix, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			if len(buf) > 0 || line.tooLong {
				line.text = string(buf)
				return line, true
			}
			return line, false
		}
		if err != nil {
			return inputLine{err: err}, true
		}
		if !line.tooLong {
			if len(buf)+len(frag) > maxLineLength {
				line.tooLong = true
				buf = nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			line.text = string(buf)
			return line, true
		}
	}
}

func (sh *Shell) println(a ...interface{}) {
	fmt.Fprintln(sh.out, a...)
}

func (sh *Shell) printMainMenu() {
	for _, entry := range mainMenu {
		sh.println(entry)
	}
}

func (sh *Shell) printBook(b Book) {
	fmt.Fprintf(sh.out, "ISBN: %s | Title: %s | Author: %s | Pages: %d | Genre: %s\n", b.ISBN, b.Title, b.Author, b.Pages, b.Genre)
}

func (sh *Shell) printBooks(books []Book) {
	for _, b := range books {
		sh.printBook(b)
	}
}

func (sh *Shell) endSession(ctx context.Context) error {
	sh.println("Thank you for using this amazing book register. Bye!")
	if err := sh.service.Save(ctx); err != nil {
		sh.println("Unable to save the book register:", err)
		return err
	}
	return nil
}

func (sh *Shell) printAllBooks(ctx context.Context) {
	books := sh.service.All(ctx)
	if len(books) == 0 {
		sh.println("No books registered.")
		return
	}
	sh.printBooks(books)
}

func (sh *Shell) addBook(ctx context.Context) error {
	isbn, err := sh.readText(ctx, "Enter ISBN:", false)
	if err != nil {
		return err
	}
	title, err := sh.readText(ctx, "Enter title:", true)
	if err != nil {
		return err
	}
	author, err := sh.readText(ctx, "Enter author:", true)
	if err != nil {
		return err
	}
	pages, err := sh.readInt(ctx, MinPages, MaxPages, "Enter number of pages:")
	if err != nil {
		return err
	}
	genre, err := sh.readGenre(ctx, "Enter Genre ("+GenreNames()+"):")
	if err != nil {
		return err
	}

	err = sh.service.Add(ctx, Book{ISBN: isbn, Title: title, Author: author, Pages: pages, Genre: genre})
	switch {
	case errors.Is(err, ErrDuplicateISBN):
		sh.println("Unable to add book. ISBN already registered.")
	case err != nil:
		sh.println("Unable to add book:", err)
	default:
		sh.println("Book added")
	}
	return nil
}

func (sh *Shell) editBook(ctx context.Context) error {
	isbn, err := sh.readText(ctx, "Enter ISBN:", false)
	if err != nil {
		return err
	}
	oldVersion, err := sh.service.FindByISBN(ctx, isbn)
	if err != nil {
		sh.println("Unable to update book. Book not found.")
		return nil
	}

	title, err := sh.readText(ctx, "Enter new title (current="+oldVersion.Title+"):", true)
	if err != nil {
		return err
	}
	author, err := sh.readText(ctx, "Enter new author (current="+oldVersion.Author+"):", true)
	if err != nil {
		return err
	}
	pages, err := sh.readInt(ctx, MinPages, MaxPages, fmt.Sprintf("Enter number of pages (current=%d):", oldVersion.Pages))
	if err != nil {
		return err
	}
	genre, err := sh.readGenre(ctx, "Enter Genre ("+GenreNames()+"): Current="+string(oldVersion.Genre))
	if err != nil {
		return err
	}

	newVersion := Book{ISBN: isbn, Title: title, Author: author, Pages: pages, Genre: genre}
	err = sh.service.Edit(ctx, oldVersion, newVersion)
	switch {
	case errors.Is(err, ErrISBNMismatch):
		sh.println("Unable to update book. ISBN mismatch.")
	case errors.Is(err, ErrBookNotFound):
		sh.println("Unable to update book. Book not found.")
	case err != nil:
		sh.println("Unable to update book:", err)
	default:
		sh.println("Book updated")
	}
	return nil
}

func (sh *Shell) printBooksByGenre(ctx context.Context) error {
	genre, err := sh.readGenre(ctx, "Enter Genre ("+GenreNames()+"):")
	if err != nil {
		return err
	}
	sh.println("All books in genre:" + string(genre))
	sh.printBooks(sh.service.FindAllByGenre(ctx, genre))
	return nil
}

func (sh *Shell) printBooksByAuthor(ctx context.Context) error {
	author, err := sh.readText(ctx, "Enter author:", true)
	if err != nil {
		return err
	}
	sh.println("All books by author:" + author)
	sh.printBooks(sh.service.FindAllByAuthor(ctx, author))
	return nil
}

func (sh *Shell) printBookByISBN(ctx context.Context) error {
	isbn, err := sh.readText(ctx, "Enter ISBN:", false)
	if err != nil {
		return err
	}
	book, err := sh.service.FindByISBN(ctx, isbn)
	if err != nil {
		sh.println("No book found with isbn=" + isbn)
		return nil
	}
	sh.printBook(book)
	return nil
}

func (sh *Shell) removeBook(ctx context.Context) error {
	isbn, err := sh.readText(ctx, "Enter ISBN:", false)
	if err != nil {
		return err
	}
	if _, err = sh.service.Remove(ctx, isbn); err != nil {
		sh.println("Unable to remove book. Book not found.")
		return nil
	}
	sh.println("Book removed")
	return nil
}
