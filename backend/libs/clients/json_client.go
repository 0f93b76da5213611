// Package clients calls the battery service's JSON endpoints.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// HTTPDoer is the subset of *http.Client the JSON client needs.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// StatusError is returned for responses with a 4xx or 5xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("clients: %s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// JSONClient sends JSON requests to one service.
type JSONClient struct {
	baseURL string
	doer    HTTPDoer
}

// NewJSONClient targets baseURL. A nil doer gets an *http.Client with a ten second timeout.
func NewJSONClient(baseURL string, doer HTTPDoer) *JSONClient {
	if doer == nil {
		doer = &http.Client{Timeout: defaultTimeout}
	}
	return &JSONClient{baseURL: strings.TrimRight(baseURL, "/"), doer: doer}
}

// PostJSON posts in (no body when nil) to path and decodes the response into out (skipped
// when nil).
func (c *JSONClient) PostJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("clients: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("clients: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{Method: req.Method, Path: req.URL.Path, Code: resp.StatusCode, Body: data}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("clients: decode response: %w", err)
	}
	return nil
}

func (c *JSONClient) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}
