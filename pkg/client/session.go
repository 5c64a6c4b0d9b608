package client

import (
	"context"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Session confirmation states reported by SessionStatus.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// SessionConfirmation asks a browser to confirm the current game session.
type SessionConfirmation struct {
	ConfirmationCode string `json:"confirmationCode"`
	ExpiresIn        int    `json:"expiresIn"`
	Interval         int64  `json:"interval"`
	ConfirmationURI  string `json:"confirmationUri"`
}

// URL is the page the player opens to confirm.
func (s *SessionConfirmation) URL() string {
	return s.ConfirmationURI + "?code=" + s.ConfirmationCode
}

// PollInterval converts Interval to a duration, falling back to 5s.
func (s *SessionConfirmation) PollInterval() time.Duration {
	if s.Interval <= 0 {
		return defaultPollInterval
	}
	return time.Duration(s.Interval) * time.Millisecond
}

// SessionStatus is the observable state of a confirmation code.
type SessionStatus struct {
	Status   string `json:"status"`
	Username string `json:"username"`
}

type confirmationBody struct {
	ConfirmationCode string `json:"confirmationCode"`
}

// InitiateSession starts a confirmation for the session the client carries.
func (c *Client) InitiateSession(ctx context.Context) (*SessionConfirmation, error) {
	var s SessionConfirmation
	if _, err := c.do(ctx, http.MethodPost, "/session/initiate", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SessionStatus polls a confirmation code once.
func (c *Client) SessionStatus(ctx context.Context, code string) (*SessionStatus, error) {
	var s SessionStatus
	if _, err := c.do(ctx, http.MethodPost, "/session/status", confirmationBody{code}, &s); err != nil {
		return nil, mapCodeError(err)
	}
	return &s, nil
}

// ConfirmSession confirms a code as the browser would.
func (c *Client) ConfirmSession(ctx context.Context, code string) error {
	_, err := c.do(ctx, http.MethodPost, "/session/confirm", confirmationBody{code}, nil)
	return err
}

// CancelSession rejects a code as the browser would.
func (c *Client) CancelSession(ctx context.Context, code string) error {
	_, err := c.do(ctx, http.MethodPost, "/session/cancel", confirmationBody{code}, nil)
	return err
}

// WaitForSessionConfirmation polls until the code is confirmed. A cancelled
// code yields ErrCancelled.
func (c *Client) WaitForSessionConfirmation(ctx context.Context, s *SessionConfirmation) (*SessionStatus, error) {
	var out *SessionStatus
	err := retry.Do(ctx, retry.NewConstant(s.PollInterval()), func(ctx context.Context) error {
		st, err := c.SessionStatus(ctx, s.ConfirmationCode)
		if err != nil {
			return err
		}
		switch st.Status {
		case StatusConfirmed:
			out = st
			return nil
		case StatusCancelled:
			return ErrCancelled
		}
		return retry.RetryableError(ErrPending)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
