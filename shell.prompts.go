package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// readLine waits for the next input line. It fails with ErrSessionAborted
// once the input is exhausted or the context is done and with ErrInputFailed
// on a read error. Over-long lines are refused and the next line is read.
func (sh *Shell) readLine(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrSessionAborted, ctx.Err())
		case line, ok := <-sh.lines:
			if !ok {
				return "", fmt.Errorf("%w: end of input", ErrSessionAborted)
			}
			if line.err != nil {
				return "", fmt.Errorf("%w: %w", ErrInputFailed, line.err)
			}
			if line.tooLong {
				sh.println(fmt.Sprintf("That value is longer than %d bytes. Try again.", maxLineLength))
				continue
			}
			return line.text, nil
		}
	}
}

// readInt prompts until an integer between min and max is entered.
func (sh *Shell) readInt(ctx context.Context, min, max int, prompt string) (int, error) {
	for {
		sh.println(prompt)
		line, err := sh.readLine(ctx)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < min || n > max {
			sh.println(fmt.Sprintf("That is not a number between %d and %d", min, max))
			continue
		}
		return n, nil
	}
}

// readGenre prompts until one of the genre names is entered.
func (sh *Shell) readGenre(ctx context.Context, prompt string) (Genre, error) {
	sh.println(prompt)
	for {
		line, err := sh.readLine(ctx)
		if err != nil {
			return "", err
		}
		genre, err := ParseGenre(strings.TrimSpace(line))
		if err != nil {
			sh.println("That is not a valid genre. Try again (" + GenreNames() + ")")
			continue
		}
		return genre, nil
	}
}

// readText prompts for a free text field. The stanza delimiter is refused
// since the register file has no escaping.
func (sh *Shell) readText(ctx context.Context, prompt string, allowEmpty bool) (string, error) {
	sh.println(prompt)
	for {
		line, err := sh.readLine(ctx)
		if err != nil {
			return "", err
		}
		switch {
		case line == StanzaDelimiter:
			sh.println("That value is reserved. Try again.")
		case !allowEmpty && strings.TrimSpace(line) == "":
			sh.println("A value is required. Try again.")
		default:
			return line, nil
		}
	}
}
