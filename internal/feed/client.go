package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chrisdamba/cotraffic/internal/models"
)

// Client fetches the speed feed. It never retries; the scheduler's next run is
// the only retry.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch issues one GET and returns the raw body. Connection failures and
// non-2xx responses both wrap models.ErrTransport.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", models.ErrTransport, c.url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %s: %v", models.ErrTransport, c.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: HTTP %d from %s", models.ErrTransport, resp.StatusCode, c.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body from %s: %v", models.ErrTransport, c.url, err)
	}
	return body, nil
}
