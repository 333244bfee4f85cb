package entrysource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ResponseError is the normalized error shape returned by the content
// client. Transport and HTTP failures are mapped into it; the client
// never returns a Go error.
type ResponseError struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Response is the content client result. Exactly one of Data or Error
// is set.
type Response struct {
	Data  []byte         `json:"data,omitempty"`
	Error *ResponseError `json:"error,omitempty"`
}

// ContentClient is the transport contract used by the Coordinator. The
// request interceptor mutates outbound headers before per-call headers
// are applied.
type ContentClient interface {
	Configure(baseURL string)
	Get(ctx context.Context, path string, headers map[string]string) Response
	SetRequestInterceptor(fn func(http.Header))
	Reset()
}

// HTTPClient implements ContentClient over net/http.
type HTTPClient struct {
	Client      *http.Client
	baseURL     string
	interceptor func(http.Header)
}

// NewHTTPClient creates the default content client.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configure sets the base URL for subsequent requests.
func (c *HTTPClient) Configure(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetRequestInterceptor installs a per-request header mutation hook.
func (c *HTTPClient) SetRequestInterceptor(fn func(http.Header)) {
	c.interceptor = fn
}

// Reset clears the base URL and interceptor.
func (c *HTTPClient) Reset() {
	c.baseURL = ""
	c.interceptor = nil
}

// Get performs the request. The interceptor runs first, then per-call
// headers are applied on top, so caller headers win on name conflicts.
func (c *HTTPClient) Get(ctx context.Context, path string, headers map[string]string) Response {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errorResponse(err.Error(), 0, "")
	}
	req.Header.Set("Accept", "application/json")
	if c.interceptor != nil {
		c.interceptor(req.Header)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errorResponse(err.Error(), 0, "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResponse(err.Error(), resp.StatusCode, "")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("content request failed with status %d", resp.StatusCode)
		return errorResponse(message, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return Response{Data: body}
}

func errorResponse(message string, code int, details string) Response {
	return Response{Error: &ResponseError{Message: message, Code: code, Details: details}}
}
