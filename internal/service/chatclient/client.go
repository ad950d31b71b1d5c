package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
)

var (
	ErrUnexpectedStatus  = errors.New("unexpected status from chat api")
	ErrMalformedResponse = errors.New("malformed chat api response")
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 1 << 20

// Client sends one message exchange to a chat API.
type Client interface {
	Send(ctx context.Context, endpoint string, req chat.Request) (chat.Response, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// HTTPClient posts JSON to {endpoint}/chat. It makes exactly one attempt per call
// and relies on the underlying transport for timeouts.
type HTTPClient struct {
	http *http.Client
}

// New returns an HTTPClient. A nil client falls back to http.DefaultClient.
func New(httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{http: httpClient}
}

// Send implements Client.
func (c *HTTPClient) Send(ctx context.Context, endpoint string, req chat.Request) (chat.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return chat.Response{}, fmt.Errorf("encode chat request: %w", err)
	}

	url := strings.TrimRight(endpoint, "/") + "/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return chat.Response{}, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return chat.Response{}, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return chat.Response{}, &StatusError{StatusCode: resp.StatusCode}
	}

	var payload struct {
		Response *string `json:"response"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return chat.Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Response == nil {
		return chat.Response{}, fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}

	return chat.Response{Response: *payload.Response}, nil
}
