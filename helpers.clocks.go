package main

import (
	"time"

	"go.uber.org/zap/zapcore"
)

var _ zapcore.Clock = (*Clock)(nil) // the same clock stamps the logs.

// Clocker gives the current time.
type Clocker interface {
	Now() time.Time
}

// Clock reads the wall clock in a fixed location: UTC in
// production and the local zone during development.
type Clock struct {
	loc *time.Location
}

func NewClock(isProd bool) *Clock {
	loc := time.Local
	if isProd {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *Clock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
