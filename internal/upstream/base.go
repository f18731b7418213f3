package upstream

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Base struct {
	client  *Client
	timeout time.Duration
}

func NewBase(client *Client, timeout time.Duration) *Base {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Base{
		client:  client,
		timeout: timeout,
	}
}

func (b *Base) D() Doer {
	return b.client.HTTP
}

func (b *Base) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// URL joins path onto the base URL and attaches the query.
func (b *Base) URL(path string, q url.Values) string {
	u := *b.client.BaseURL
	u.Path = u.Path + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// NewGet builds a GET request for path. The caller owns ctx's deadline.
func (b *Base) NewGet(ctx context.Context, path string, q url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL(path, q), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
