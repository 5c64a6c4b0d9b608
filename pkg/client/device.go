package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const defaultPollInterval = 5 * time.Second

// DeviceAuthorization starts a device link. Interval is in milliseconds and
// ExpiresIn in seconds, as sent by the server.
type DeviceAuthorization struct {
	DeviceCode              string `json:"deviceCode"`
	UserCode                string `json:"userCode"`
	VerificationURI         string `json:"verificationUri"`
	VerificationURIComplete string `json:"verificationUriComplete"`
	ExpiresIn               int    `json:"expiresIn"`
	Interval                int64  `json:"interval"`
}

// PollInterval converts Interval to a duration, falling back to 5s.
func (a *DeviceAuthorization) PollInterval() time.Duration {
	if a.Interval <= 0 {
		return defaultPollInterval
	}
	return time.Duration(a.Interval) * time.Millisecond
}

// DeviceToken is the resolved outcome of a device link.
type DeviceToken struct {
	Token  string `json:"token"`
	User   User   `json:"user"`
	Status string `json:"status"`
}

// InitiateDevice requests a new device code.
func (c *Client) InitiateDevice(ctx context.Context) (*DeviceAuthorization, error) {
	var a DeviceAuthorization
	if _, err := c.do(ctx, http.MethodPost, "/device/initiate", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// PollDeviceToken polls once. It returns ErrPending, ErrNotFound or ErrExpired
// for the corresponding server answers.
func (c *Client) PollDeviceToken(ctx context.Context, deviceCode string) (*DeviceToken, error) {
	var t DeviceToken
	status, err := c.do(ctx, http.MethodPost, "/device/token", map[string]string{"deviceCode": deviceCode}, &t)
	if err != nil {
		return nil, mapCodeError(err)
	}
	if status == http.StatusAccepted {
		return nil, ErrPending
	}
	return &t, nil
}

// WaitForDeviceToken polls every authorization interval until the link
// resolves, the code is gone, or ctx ends.
func (c *Client) WaitForDeviceToken(ctx context.Context, a *DeviceAuthorization) (*DeviceToken, error) {
	var tok *DeviceToken
	err := retry.Do(ctx, retry.NewConstant(a.PollInterval()), func(ctx context.Context) error {
		t, err := c.PollDeviceToken(ctx, a.DeviceCode)
		if errors.Is(err, ErrPending) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		tok = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// ConnectDevice links a user code to the session the client carries.
func (c *Client) ConnectDevice(ctx context.Context, userCode string) error {
	_, err := c.do(ctx, http.MethodPost, "/device/connect", map[string]string{"userCode": userCode}, nil)
	return err
}

// LoginDevice links a user code by logging in, as the web page does.
func (c *Client) LoginDevice(ctx context.Context, userCode, username, password string) (*Session, error) {
	var s Session
	body := map[string]string{"userCode": userCode, "username": username, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/device/login", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func mapCodeError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusGone:
		return ErrExpired
	}
	return err
}
