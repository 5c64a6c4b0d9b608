package codestore

import (
	"log/slog"
	"time"
)

// Defaults for code lifetimes and housekeeping.
const (
	DefaultTTL           = 5 * time.Minute
	DefaultPollInterval  = 5 * time.Second
	DefaultSweepInterval = time.Minute
	DefaultTerminalGrace = 5 * time.Second
)

// Option configures a Store
type Option func(*Store)

// WithTTL sets how long issued codes stay valid
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithPollInterval sets the interval clients are told to wait between polls
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithSweepInterval sets the eviction sweep period
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithTerminalGrace sets how close to expiry a resolved code may get before
// the sweep removes it
func WithTerminalGrace(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.terminalGrace = d
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used by the sweep
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}
