// Package kite is a minimal client for the Zerodha Kite Connect v3 REST API.
package kite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	"github.com/username/tradejournal/backend/src/models"
)

const (
	DefaultBaseURL = "https://api.kite.trade"
	apiVersion     = "3"

	errorTypeToken = "TokenException"
)

// ErrTokenRejected marks authentication failures: the stored access token has
// expired or was revoked and the user must reconnect.
var ErrTokenRejected = errors.New("kite: access token rejected")

// APIError is a non-success response from the API.
type APIError struct {
	Status    int
	Message   string
	ErrorType string
}

func (e *APIError) Error() string {
	if e.ErrorType != "" {
		return fmt.Sprintf("kite API error (%d %s): %s", e.Status, e.ErrorType, e.Message)
	}
	return fmt.Sprintf("kite API error (%d): %s", e.Status, e.Message)
}

// Unwrap exposes ErrTokenRejected for 401, 403 and TokenException responses,
// including those that only name the exception in the message.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden ||
		e.ErrorType == errorTypeToken || strings.Contains(e.Message, errorTypeToken) {
		return ErrTokenRejected
	}
	return nil
}

type envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client authenticated with creds. The Authorization header
// is "token api_key:access_token".
func NewClient(baseURL string, creds models.Credentials, timeout time.Duration) (*Client, error) {
	if !creds.Complete() {
		return nil, errors.New("kite: api key and access token are required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("kite: failed to create cookie jar: %w", err)
	}

	token := &oauth2.Token{TokenType: "token", AccessToken: creds.APIKey + ":" + creds.AccessToken}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(token),
				Base:   http.DefaultTransport,
			},
		},
	}, nil
}

// Orders returns the day's orders in every status.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.get(ctx, "/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Positions returns the net and day positions.
func (c *Client) Positions(ctx context.Context) (*Positions, error) {
	var positions Positions
	if err := c.get(ctx, "/portfolio/positions", &positions); err != nil {
		return nil, err
	}
	return &positions, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("kite: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Kite-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kite: request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("kite: failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		if decodeErr == nil {
			apiErr.Message, apiErr.ErrorType = env.Message, env.ErrorType
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("kite: failed to decode response envelope: %w", decodeErr)
	}
	if env.Status != "success" {
		return &APIError{Status: resp.StatusCode, Message: env.Message, ErrorType: env.ErrorType}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("kite: failed to decode %s data: %w", path, err)
	}
	return nil
}
