// Package codestore keeps the short-lived device and session confirmation
// codes in memory and evicts them on a background sweep.
package codestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/validation"
)

// ErrStopped is reported by CheckHealth after Stop.
var ErrStopped = errors.New("code store stopped")

const maxGenerateAttempts = 10

type devicePayload struct {
	userCode string
	token    string
	user     *auth.Identity
}

type confirmationPayload struct {
	userToken string
	user      auth.Identity
}

// DeviceCode is a snapshot of a device code record.
type DeviceCode struct {
	DeviceCode string
	UserCode   string
	Status     Status
	ExpiresAt  time.Time
	ResolvedAt time.Time
	Token      string
	User       *auth.Identity
}

// DeviceGrant is returned when a device code is issued.
type DeviceGrant struct {
	DeviceCode string
	UserCode   string
	ExpiresIn  time.Duration
	Interval   time.Duration
	ExpiresAt  time.Time
}

// ConfirmationCode is a snapshot of a confirmation code record.
type ConfirmationCode struct {
	Code       string
	UserToken  string
	User       auth.Identity
	Status     Status
	ExpiresAt  time.Time
	ResolvedAt time.Time
}

// ConfirmationGrant is returned when a confirmation code is issued.
type ConfirmationGrant struct {
	Code      string
	ExpiresIn time.Duration
	Interval  time.Duration
	ExpiresAt time.Time
}

// Stats summarises live codes.
type Stats struct {
	PendingDevice       int `json:"pendingDevice"`
	PendingConfirmation int `json:"pendingConfirmation"`
	TotalDevice         int `json:"totalDevice"`
	TotalConfirmation   int `json:"totalConfirmation"`
}

// Store holds device and confirmation codes. Construct with New, call Start
// to run the eviction sweep and Stop to end it.
type Store struct {
	devices       *Registry[devicePayload]
	confirmations *Registry[confirmationPayload]

	ttl           time.Duration
	pollInterval  time.Duration
	sweepInterval time.Duration
	terminalGrace time.Duration
	now           func() time.Time
	logger        *slog.Logger
	recorder      Recorder

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	done      chan struct{}
	started   bool
	mu        sync.Mutex
	stopped   bool
}

// New returns a Store configured by opts. The sweep does not run until Start.
func New(opts ...Option) *Store {
	s := &Store{
		devices:       newRegistry[devicePayload](),
		confirmations: newRegistry[confirmationPayload](),
		ttl:           DefaultTTL,
		pollInterval:  DefaultPollInterval,
		sweepInterval: DefaultSweepInterval,
		terminalGrace: DefaultTerminalGrace,
		now:           time.Now,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder:      nopRecorder{},
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL reports the lifetime of newly issued codes.
func (s *Store) TTL() time.Duration { return s.ttl }

// PollInterval reports the interval clients should wait between polls.
func (s *Store) PollInterval() time.Duration { return s.pollInterval }

// Start launches the background sweep. Calling it more than once is a no-op.
func (s *Store) Start() {
	s.startOnce.Do(func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.started = true
		s.mu.Unlock()
		go s.sweepLoop()
	})
}

// Stop ends the sweep and waits for it to exit. Safe to call repeatedly.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		started := s.started
		s.mu.Unlock()

		close(s.stopCh)
		if started {
			<-s.done
		}
	})
}

func (s *Store) sweepLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(s.now())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep evicts stale records from both registries as of now and returns
// how many were removed.
func (s *Store) Sweep(now time.Time) int {
	devices := s.devices.sweep(now, s.terminalGrace)
	confirmations := s.confirmations.sweep(now, s.terminalGrace)

	s.recorder.CodesSwept(KindDevice, devices)
	s.recorder.CodesSwept(KindConfirmation, confirmations)
	s.recorder.SetPending(KindDevice, s.devices.countPending(now))
	s.recorder.SetPending(KindConfirmation, s.confirmations.countPending(now))

	if devices+confirmations > 0 {
		s.logger.Debug("swept codes", "device", devices, "confirmation", confirmations)
	}
	return devices + confirmations
}

// CheckHealth reports whether the store is accepting work.
func (s *Store) CheckHealth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	return nil
}

// Stats counts live records.
func (s *Store) Stats() Stats {
	now := s.now()
	return Stats{
		PendingDevice:       s.devices.countPending(now),
		PendingConfirmation: s.confirmations.countPending(now),
		TotalDevice:         s.devices.len(),
		TotalConfirmation:   s.confirmations.len(),
	}
}

// GenerateDeviceCode issues a new pending device code with a user code that
// does not collide with any other live pending code.
func (s *Store) GenerateDeviceCode() (DeviceGrant, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		deviceCode, err := generateSecureCode(secretCodeBytes)
		if err != nil {
			return DeviceGrant{}, oops.Code("CODE_GENERATE_FAILED").Wrapf(err, "generating device code")
		}
		userCode, err := generateUserCode()
		if err != nil {
			return DeviceGrant{}, oops.Code("CODE_GENERATE_FAILED").Wrapf(err, "generating user code")
		}

		now := s.now()
		expiresAt := now.Add(s.ttl)
		payload := devicePayload{userCode: userCode}
		ok := s.devices.insert(now, deviceCode, payload, expiresAt, func(p devicePayload) bool {
			return p.userCode == userCode
		})
		if !ok {
			continue
		}

		s.recorder.CodeIssued(KindDevice)
		return DeviceGrant{
			DeviceCode: deviceCode,
			UserCode:   userCode,
			ExpiresIn:  s.ttl,
			Interval:   s.pollInterval,
			ExpiresAt:  expiresAt,
		}, nil
	}
	return DeviceGrant{}, oops.Code("CODE_GENERATE_FAILED").
		Errorf("no unique device code after %d attempts", maxGenerateAttempts)
}

// GetCodeInfo returns the device code record without any freshness filter.
func (s *Store) GetCodeInfo(deviceCode string) (DeviceCode, bool) {
	rec, ok := s.devices.get(deviceCode)
	if !ok {
		return DeviceCode{}, false
	}
	return deviceSnapshot(rec), true
}

// FindByUserCode returns the pending, unexpired device code displaying userCode.
// Input is normalised, so "bcdf ghjk" matches "BCDF-GHJK".
func (s *Store) FindByUserCode(userCode string) (DeviceCode, bool) {
	want := validation.NormalizeUserCode(userCode)
	if want == "" {
		return DeviceCode{}, false
	}
	rec, ok := s.devices.findPending(s.now(), func(p devicePayload) bool {
		return p.userCode == want
	})
	if !ok {
		return DeviceCode{}, false
	}
	return deviceSnapshot(rec), true
}

// CompleteCode attaches a token and user to a pending device code. It reports
// false, leaving the record untouched, if the code is missing, expired or not
// pending.
func (s *Store) CompleteCode(deviceCode, token string, user auth.Identity) bool {
	ok := s.devices.transition(s.now(), deviceCode, []Status{StatusPending}, StatusCompleted, true, func(p *devicePayload) {
		p.token = token
		u := user
		p.user = &u
	})
	if ok {
		s.recorder.CodeResolved(KindDevice, StatusCompleted)
	}
	return ok
}

// InvalidateCode retires a pending or completed device code and drops its payload.
func (s *Store) InvalidateCode(deviceCode string) bool {
	ok := s.devices.transition(s.now(), deviceCode, []Status{StatusPending, StatusCompleted}, StatusInvalidated, false, func(p *devicePayload) {
		p.token = ""
		p.user = nil
	})
	if ok {
		s.recorder.CodeResolved(KindDevice, StatusInvalidated)
	}
	return ok
}

// GenerateConfirmationCode issues a pending confirmation code bound to user.
func (s *Store) GenerateConfirmationCode(userToken string, user auth.Identity) (ConfirmationGrant, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := generateSecureCode(secretCodeBytes)
		if err != nil {
			return ConfirmationGrant{}, oops.Code("CODE_GENERATE_FAILED").Wrapf(err, "generating confirmation code")
		}

		now := s.now()
		expiresAt := now.Add(s.ttl)
		if !s.confirmations.insert(now, code, confirmationPayload{userToken: userToken, user: user}, expiresAt, nil) {
			continue
		}

		s.recorder.CodeIssued(KindConfirmation)
		return ConfirmationGrant{
			Code:      code,
			ExpiresIn: s.ttl,
			Interval:  s.pollInterval,
			ExpiresAt: expiresAt,
		}, nil
	}
	return ConfirmationGrant{}, oops.Code("CODE_GENERATE_FAILED").
		Errorf("no unique confirmation code after %d attempts", maxGenerateAttempts)
}

// GetConfirmationCodeInfo returns the confirmation record without any freshness filter.
func (s *Store) GetConfirmationCodeInfo(code string) (ConfirmationCode, bool) {
	rec, ok := s.confirmations.get(code)
	if !ok {
		return ConfirmationCode{}, false
	}
	return ConfirmationCode{
		Code:       rec.ID,
		UserToken:  rec.Payload.userToken,
		User:       rec.Payload.user,
		Status:     rec.Status,
		ExpiresAt:  rec.ExpiresAt,
		ResolvedAt: rec.ResolvedAt,
	}, true
}

// ConfirmCode moves a pending confirmation code to confirmed.
func (s *Store) ConfirmCode(code string) bool {
	ok := s.confirmations.transition(s.now(), code, []Status{StatusPending}, StatusConfirmed, false, nil)
	if ok {
		s.recorder.CodeResolved(KindConfirmation, StatusConfirmed)
	}
	return ok
}

// CancelCode moves a pending confirmation code to cancelled.
func (s *Store) CancelCode(code string) bool {
	ok := s.confirmations.transition(s.now(), code, []Status{StatusPending}, StatusCancelled, false, nil)
	if ok {
		s.recorder.CodeResolved(KindConfirmation, StatusCancelled)
	}
	return ok
}

// Now returns the store's notion of the current time.
func (s *Store) Now() time.Time { return s.now() }

func deviceSnapshot(rec Record[devicePayload]) DeviceCode {
	dc := DeviceCode{
		DeviceCode: rec.ID,
		UserCode:   rec.Payload.userCode,
		Status:     rec.Status,
		ExpiresAt:  rec.ExpiresAt,
		ResolvedAt: rec.ResolvedAt,
		Token:      rec.Payload.token,
	}
	if rec.Payload.user != nil {
		u := *rec.Payload.user
		dc.User = &u
	}
	return dc
}

// Expired reports whether the code is past its expiry at now.
func (c DeviceCode) Expired(now time.Time) bool { return !now.Before(c.ExpiresAt) }

// Expired reports whether the code is past its expiry at now.
func (c ConfirmationCode) Expired(now time.Time) bool { return !now.Before(c.ExpiresAt) }
