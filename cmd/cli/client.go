package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iho/cashledger/internal/adapter/http/middleware"
)

type clientOptions struct {
	baseURL        string
	timeout        time.Duration
	token          string
	userID         string
	role           string
	idempotencyKey string
}

type apiClient struct {
	opts clientOptions
	http *http.Client
}

func newAPIClient(opts *clientOptions) *apiClient {
	return &apiClient{opts: *opts, http: &http.Client{Timeout: opts.timeout}}
}

// apiError is a non-2xx response from the server.
type apiError struct {
	Status  int
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Err     string `json:"error"`
}

func (e *apiError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Err
	}
	if e.Kind != "" {
		return fmt.Sprintf("request failed (%d %s): %s", e.Status, e.Kind, msg)
	}
	return fmt.Sprintf("request failed (%d): %s", e.Status, msg)
}

func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := strings.TrimRight(c.opts.baseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		key := c.opts.idempotencyKey
		if key == "" {
			key = uuid.NewString()
		}
		req.Header.Set(middleware.IdempotencyKeyHeader, key)
	}
	if c.opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.token)
	} else {
		req.Header.Set(middleware.UserIDHeader, c.opts.userID)
		req.Header.Set(middleware.UserRoleHeader, c.opts.role)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil {
			apiErr.Message = truncate(string(data), 200)
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
