// Package client is a Go client for the arcade-auth API, covering what a game
// needs: account login, device linking, session confirmation and scores.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrPending is returned by a poll while the player has not acted yet
	ErrPending = errors.New("authorization pending")

	// ErrNotFound is returned for unknown or already consumed codes
	ErrNotFound = errors.New("code not found or already used")

	// ErrExpired is returned once a code has expired
	ErrExpired = errors.New("code expired")

	// ErrCancelled is returned when a session confirmation was rejected
	ErrCancelled = errors.New("session confirmation cancelled")
)

// APIError is any non-success response not covered by a sentinel error.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("arcade api: %d %s", e.StatusCode, e.Message)
}

// Client talks to one arcade-auth server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a client that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *c.http
	hc.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   base,
	}
	return &Client{baseURL: c.baseURL, http: &hc}
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends body as JSON and decodes a 2xx reply into out. It returns the
// status code for callers that distinguish between 2xx codes.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		msg := eb.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// User identifies an account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Session is a logged-in account.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var s Session
	if _, err := c.do(ctx, http.MethodPost, "/login", credentials{username, password}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	_, err := c.do(ctx, http.MethodPost, "/register", credentials{username, password}, nil)
	return err
}

// ScoreUpdate is the server's answer to a submitted score.
type ScoreUpdate struct {
	Message     string `json:"message"`
	NewMaxScore int64  `json:"new_max_score"`
}

// SubmitScore records a finished game. The client must carry the player's token.
func (c *Client) SubmitScore(ctx context.Context, userID, score int64) (*ScoreUpdate, error) {
	var u ScoreUpdate
	path := "/users/" + url.PathEscape(fmt.Sprint(userID)) + "/score"
	if _, err := c.do(ctx, http.MethodPut, path, map[string]int64{"score": score}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
