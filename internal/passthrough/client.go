package passthrough

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client forwards sanitized Anthropic bodies to the zai passthrough
// provider. Grounded on lodos2005-antimatter's resty-based upstream client
// usage (the same library backs the OAuth refresher in internal/oauth).
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient constructs a Client bound to baseURL with the given per-call
// timeout applied to the wait for the upstream's response headers only —
// streaming bodies are not bounded by it (§5).
func NewClient(baseURL string, timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &Client{
		http:    resty.New().SetTransport(transport),
		baseURL: baseURL,
	}
}

// Forward sends body to path with header applied, returning the raw
// *http.Response so the caller can stream or buffer it as appropriate.
// SetDoNotParseResponse leaves the body unread so SSE streaming works.
func (c *Client) Forward(ctx context.Context, path string, header http.Header, body []byte) (*http.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetBody(body)
	for k, values := range header {
		for _, v := range values {
			req.SetHeader(k, v)
		}
	}
	resp, err := req.Post(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	return resp.RawResponse, nil
}
