package main

import (
	"errors"
	"log"
	"os"
)

// Set at build time with -ldflags "-X main.GitTag=...".
var (
	GitCommit string
	GitTag    string
	BuildTime string
)

func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatalf("book register: cannot start: %v", err)
	}

	err = app.Run()
	switch {
	case errors.Is(err, ErrSessionAborted):
		log.Printf("book register: session ended without saving: %v", err)
		os.Exit(2)
	case err != nil:
		log.Fatalf("book register: session failed, see logs for details: %v", err)
	}
}
