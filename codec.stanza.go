package main

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
)

// StanzaDelimiter is the line separating two book stanzas in the register file.
const StanzaDelimiter = "---"

// stanzaLines is the number of field lines of one book stanza.
const stanzaLines = 5

var errNonPositivePages = errors.New("must be a positive integer")

// DecodeBooks reads the whole register text from r and decodes its stanzas.
// Decoding is all or nothing: on failure no book is returned.
func DecodeBooks(r io.Reader) ([]Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return UnmarshalBooks(data)
}

// UnmarshalBooks decodes register text made of 5-line stanzas separated by
// a `---` line. A delimiter after the last stanza and a single trailing line
// terminator are tolerated since older writers emitted them.
func UnmarshalBooks(data []byte) ([]Book, error) {
	books := []Book{}
	text := strings.TrimSuffix(string(data), "\n")
	if len(text) == 0 {
		return books, nil
	}

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	for i := 0; i < len(lines); {
		if i+stanzaLines > len(lines) {
			return nil, &ParseError{Line: len(lines), Field: "stanza", Value: lines[len(lines)-1], Err: ErrMalformedStanza}
		}

		book, err := decodeStanza(lines[i:i+stanzaLines], i+1)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
		i += stanzaLines

		if i == len(lines) {
			break
		}
		if lines[i] != StanzaDelimiter {
			return nil, &ParseError{Line: i + 1, Field: "delimiter", Value: lines[i], Err: ErrMalformedStanza}
		}
		i++
	}
	return books, nil
}

// decodeStanza builds a book from its five field lines. first is
// the 1-based line number of the stanza's isbn line.
func decodeStanza(fields []string, first int) (Book, error) {
	pagesLine := strings.TrimSpace(fields[3])
	pages, err := strconv.Atoi(pagesLine)
	if err != nil {
		return Book{}, &ParseError{Line: first + 3, Field: "page count", Value: fields[3], Err: err}
	}
	if pages <= 0 {
		return Book{}, &ParseError{Line: first + 3, Field: "page count", Value: fields[3], Err: errNonPositivePages}
	}

	genre, err := ParseGenre(fields[4])
	if err != nil {
		return Book{}, &UnknownGenreError{Line: first + 4, Value: fields[4]}
	}

	return Book{
		ISBN:   fields[0],
		Title:  fields[1],
		Author: fields[2],
		Pages:  pages,
		Genre:  genre,
	}, nil
}

// EncodeBooks writes the books as stanzas in order. Nothing follows
// the last field of the final stanza, not even a line terminator.
func EncodeBooks(w io.Writer, books []Book) error {
	bw := bufio.NewWriter(w)
	for i, b := range books {
		if i > 0 {
			bw.WriteString("\n" + StanzaDelimiter + "\n")
		}
		bw.WriteString(b.ISBN)
		bw.WriteByte('\n')
		bw.WriteString(b.Title)
		bw.WriteByte('\n')
		bw.WriteString(b.Author)
		bw.WriteByte('\n')
		bw.WriteString(strconv.Itoa(b.Pages))
		bw.WriteByte('\n')
		bw.WriteString(string(b.Genre))
	}
	return bw.Flush()
}

// MarshalBooks returns the register text of the books.
func MarshalBooks(books []Book) []byte {
	var buf bytes.Buffer
	_ = EncodeBooks(&buf, books)
	return buf.Bytes()
}
