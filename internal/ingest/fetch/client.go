// Package fetch is the plain HTTP getter shared by the upstream clients.
package fetch

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
)

var (
	// ErrUpstream marks network failures and non-2xx responses.
	ErrUpstream = errors.New("upstream request failed")
	// ErrDecode marks payloads that could not be decoded.
	ErrDecode = errors.New("upstream payload could not be decoded")
)

// UserAgent is sent with every request.
const UserAgent = "dugout/1.0 (+https://github.com/fortuna/dugout)"

// DefaultTimeout bounds requests whose context carries no deadline.
const DefaultTimeout = 15 * time.Second

// Client performs GET requests over fasthttp.
type Client struct {
	client  *fasthttp.Client
	timeout time.Duration
}

// NewClient creates a client with pooled connections.
func NewClient() *Client {
	return &Client{
		client: &fasthttp.Client{
			Name:                UserAgent,
			MaxConnsPerHost:     32,
			ReadTimeout:         DefaultTimeout,
			WriteTimeout:        DefaultTimeout,
			MaxIdleConnDuration: time.Minute,
			MaxResponseBodySize: 32 << 20,
		},
		timeout: DefaultTimeout,
	}
}

// Get fetches url and returns a copy of the body. The context deadline, if
// any, bounds the request.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "GET %s", url), ErrUpstream)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "*/*")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "GET %s", url), ErrUpstream)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, errors.Wrapf(ErrUpstream, "GET %s: status %d", url, status)
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "GET %s: body", url), ErrDecode)
	}
	return append([]byte(nil), body...), nil
}
