// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package remote

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
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// ServerURL is the base URL of the chat service (e.g., "https://chat.example.org").
	ServerURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is an unauthenticated chat service client.
// It holds the server URL and HTTP transport, shared across sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated chat service client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.ServerURL == "" {
		return nil, fmt.Errorf("remote: ServerURL is required")
	}
	if _, err := url.Parse(config.ServerURL); err != nil {
		return nil, fmt.Errorf("remote: invalid ServerURL %q: %w", config.ServerURL, err)
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
		baseURL:    strings.TrimRight(config.ServerURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Login authenticates with username and password, returning a
// DirectSession for authenticated operations.
func (c *Client) Login(ctx context.Context, username, password string) (*DirectSession, error) {
	if username == "" {
		return nil, fmt.Errorf("remote: username is required for login")
	}
	if password == "" {
		return nil, fmt.Errorf("remote: password is required for login")
	}

	loginRequest := map[string]string{
		"user":     username,
		"password": password,
	}
	body, err := c.doRequest(ctx, http.MethodPost, "/api/v1/login", nil, loginRequest)
	if err != nil {
		return nil, fmt.Errorf("remote: login failed: %w", err)
	}

	var authResponse AuthResponse
	if err := json.Unmarshal(body, &authResponse); err != nil {
		return nil, fmt.Errorf("remote: failed to parse login response: %w", err)
	}

	c.logger.Info("logged in to chat service", "user_id", authResponse.UserID)

	return &DirectSession{
		client:    c,
		userID:    authResponse.UserID,
		authToken: authResponse.AuthToken,
	}, nil
}

// SessionFromToken creates a DirectSession from saved credentials.
// This does NOT validate the token — the first API call will fail if
// it has expired.
func (c *Client) SessionFromToken(userID, authToken string) (*DirectSession, error) {
	if userID == "" || authToken == "" {
		return nil, fmt.Errorf("remote: userID and authToken are required")
	}
	return &DirectSession{
		client:    c,
		userID:    userID,
		authToken: authToken,
	}, nil
}

// doRequest performs an HTTP request to the chat service and returns
// the response body. On 2xx, returns the body. On 4xx/5xx, returns a
// *ServiceError. session may be nil for unauthenticated endpoints.
// query may be omitted for endpoints without query parameters.
func (c *Client) doRequest(ctx context.Context, method, path string, session *DirectSession, requestBody any, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("remote: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to create request: %w", err)
	}

	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		request.Header.Set("X-Auth-Token", session.authToken)
		request.Header.Set("X-User-Id", session.userID)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("remote: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All service error responses use the same JSON shape.
	var serviceErr ServiceError
	if jsonErr := json.Unmarshal(responseBody, &serviceErr); jsonErr != nil || serviceErr.Code == "" {
		// Server returned a non-JSON or unstructured error. Fail loud
		// with the raw body.
		return nil, fmt.Errorf("remote: unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, string(responseBody))
	}
	serviceErr.StatusCode = response.StatusCode

	return nil, &serviceErr
}
