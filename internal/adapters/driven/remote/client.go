// Package remote queries a running trufflepig server over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/frods/trufflepig/internal/core/domain"
)

// DefaultRetries is the number of retries for a failed request.
const DefaultRetries = 3

// maxBody bounds how much of a response is read.
const maxBody = 16 << 20

// Status is the server's view of its roots and statistics.
type Status struct {
	Roots []domain.RootStatus `json:"roots"`
	Stats domain.CacheStats   `json:"stats"`
}

type wireEvent struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Identity string `json:"identity"`
	Reason   string `json:"reason"`
	Time     string `json:"time"`
}

type wireError struct {
	Error string `json:"error"`
}

// Client calls the endpoint of a trufflepig server.
type Client struct {
	base string
	http *retryablehttp.Client
}

// NewClient creates a client for the endpoint URL, e.g.
// http://127.0.0.1:3030/contracts.
func NewClient(endpoint string, retries int) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: remote endpoint %q", domain.ErrInvalidInput, endpoint)
	}
	u.RawQuery = ""

	rc := retryablehttp.NewClient()
	rc.RetryMax = max(retries, 0)
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{base: strings.TrimRight(u.String(), "/"), http: rc}, nil
}

// Endpoint returns the base URL.
func (c *Client) Endpoint() string {
	return c.base
}

// ListIdentities returns the identities the server knows, sorted.
func (c *Client) ListIdentities(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.get(ctx, c.base, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Query returns the document of the first artifact matching criteria.
// found is false when nothing matches.
func (c *Client) Query(ctx context.Context, criteria map[string]string) (doc json.RawMessage, found bool, err error) {
	if len(criteria) == 0 {
		return nil, false, &domain.QueryError{Reason: "no criteria"}
	}
	params := url.Values{}
	for field, value := range criteria {
		params.Set(field, value)
	}

	var raw json.RawMessage
	if err := c.get(ctx, c.base+"?"+params.Encode(), &raw); err != nil {
		return nil, false, err
	}
	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	if len(probe) == 0 {
		return nil, false, nil
	}
	return raw, true, nil
}

// Status returns root states and cache statistics.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.get(ctx, c.base+"/_status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Recent returns up to limit recorded notifications, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]domain.Notification, error) {
	target := c.base + "/_events"
	if limit > 0 {
		target += "?limit=" + strconv.Itoa(limit)
	}

	var events []wireEvent
	if err := c.get(ctx, target, &events); err != nil {
		return nil, err
	}

	out := make([]domain.Notification, 0, len(events))
	for _, ev := range events {
		n := domain.Notification{
			ID:       ev.ID,
			Kind:     domain.NotificationKind(ev.Kind),
			Path:     ev.Path,
			Identity: ev.Identity,
			Reason:   ev.Reason,
		}
		if t, err := time.Parse(time.RFC3339Nano, ev.Time); err == nil {
			n.Time = t
		}
		out = append(out, n)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, target string, v any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var we wireError
		if json.Unmarshal(body, &we) == nil && we.Error != "" {
			if resp.StatusCode == http.StatusBadRequest {
				return fmt.Errorf("%w: %s", domain.ErrQuery, we.Error)
			}
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, we.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(bytes.TrimSpace(body), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
