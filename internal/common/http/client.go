// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps net/http with JSON helpers. A zero timeout leaves requests unbounded,
// which is the behaviour of http.DefaultClient.
type Client struct {
	httpClient *http.Client
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into out.
func (r *Response) DecodeJSON(out interface{}) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWith uses an existing *http.Client, e.g. one with a custom transport.
func NewClientWith(c *http.Client) *Client {
	return &Client{httpClient: c}
}

// PostJSON marshals payload, POSTs it with Content-Type application/json and reads
// the whole response. Non-2xx statuses are returned as a Response, not an error;
// the error is reserved for failures to reach the server or read its answer.
func (c *Client) PostJSON(ctx context.Context, url string, payload interface{}) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
