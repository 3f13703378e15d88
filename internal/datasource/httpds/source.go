package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned for responses that do not carry the table.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Source serves one URL as a data source.
type Source struct {
	client *Client
	url    string
}

// NewSource binds c to url.
func NewSource(c *Client, url string) *Source { return &Source{client: c, url: url} }

// Open downloads the table. Any status outside 2xx is a *StatusError.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: s.url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
