// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Discord API endpoint.
const DefaultBaseURL = "https://discord.com/api/v10"

// globalRequestRate stays under Discord's global limit of 50
// requests per second per bot.
const globalRequestRate = 45

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Token is the bot token. Sent as "Bot <token>" on every request.
	Token string
	// BaseURL overrides the API endpoint. Empty means DefaultBaseURL.
	// Tests point this at an httptest server.
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is an authenticated Discord REST client. It is safe for
// concurrent use; a shared limiter keeps the whole process under the
// global request rate.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Discord REST client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("discord: Token is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("discord: invalid BaseURL %q: %w", baseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		token:      config.Token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(globalRequestRate), globalRequestRate),
		logger:     logger,
	}, nil
}

// doRequest performs one API request and returns the response body.
// On 2xx the body is returned; on anything else the body is parsed
// into an *APIError. Requests wait on the global rate limiter first,
// bounded by ctx.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("discord: rate limiter: %w", err)
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("discord: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("discord: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bot "+c.token)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("discord: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("discord: reading response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	apiErr := &APIError{StatusCode: response.StatusCode}
	if jsonErr := json.Unmarshal(responseBody, apiErr); jsonErr != nil {
		return nil, fmt.Errorf("discord: unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, string(responseBody))
	}
	return nil, apiErr
}

// get performs a GET and unmarshals the response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("discord: parsing response from %s: %w", path, err)
	}
	return nil
}
