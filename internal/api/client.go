package api

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
)

const DefaultBaseURL = "http://localhost:8000/api"

// maxErrorBody caps how much of a failed response is kept as the message.
const maxErrorBody = 64 << 10

// HTTPError is returned for any non-2xx evaluator response. Message is the
// response body, or the status text when the body is empty.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

type Client struct {
	baseURL string
	http    *http.Client
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, http: hc}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) ListMissions(ctx context.Context) ([]MissionSummary, error) {
	var out []MissionSummary
	if err := c.do(ctx, http.MethodGet, "/missions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StartMission(ctx context.Context, req StartRequest) (StartResponse, error) {
	var out StartResponse
	err := c.do(ctx, http.MethodPost, "/missions/start", req, &out)
	return out, err
}

func (c *Client) SubmitCommand(ctx context.Context, sessionID string, req CommandRequest) (CommandResponse, error) {
	var out CommandResponse
	err := c.do(ctx, http.MethodPost, "/missions/"+url.PathEscape(sessionID)+"/command", req, &out)
	return out, err
}

func (c *Client) RequestHint(ctx context.Context, sessionID string) (HintResponse, error) {
	var out HintResponse
	err := c.do(ctx, http.MethodPost, "/missions/"+url.PathEscape(sessionID)+"/hint", nil, &out)
	return out, err
}

func (c *Client) SessionStatus(ctx context.Context, sessionID string) (SessionStatus, error) {
	var out SessionStatus
	err := c.do(ctx, http.MethodGet, "/missions/"+url.PathEscape(sessionID), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(detail))
		if msg == "" {
			msg = statusText(resp)
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}
