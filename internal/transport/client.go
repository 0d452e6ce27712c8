package transport

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

// invokePath is the fixed inference endpoint on the backend.
const invokePath = "/api/invoke"

// replyLimit bounds how much of a backend reply is read.
const replyLimit = 4 << 20

// Reply is the structured backend result. Nil fields were absent from
// the reply body; unknown fields are ignored.
type Reply struct {
	Response    *string `json:"response"`
	ResponseLog *string `json:"response-log"`
}

// Error reports a failed transport exchange: the network round trip, a
// non-success status, or an undecodable reply body.
type Error struct {
	Op     string // "send", "status" or "decode"
	Status int    // HTTP status when Op == "status"
	Err    error
}

func (e *Error) Error() string {
	switch e.Op {
	case "status":
		return fmt.Sprintf("backend returned status %d", e.Status)
	default:
		return fmt.Sprintf("backend %s failed: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Client performs single request/response exchanges with the inference
// backend. It carries no retry policy; callers decide.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given backend base URL. The timeout
// bounds the whole exchange.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts the user text to the backend and decodes the structured
// reply. Any failure is reported as a *Error.
func (c *Client) Send(ctx context.Context, text string) (Reply, error) {
	payload, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return Reply{}, &Error{Op: "send", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+invokePath, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, &Error{Op: "send", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, &Error{Op: "send", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, replyLimit))
	if err != nil {
		return Reply{}, &Error{Op: "send", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, &Error{Op: "status", Status: resp.StatusCode}
	}

	var reply Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return Reply{}, &Error{Op: "decode", Err: err}
	}
	return reply, nil
}
