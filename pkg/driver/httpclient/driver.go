package httpclient

import (
	"context"
	"net/http"

	"toolsmith/pkg/driver"
	"toolsmith/pkg/logging"
	"toolsmith/pkg/version"
)

// Driver provides an HTTP client with platform-specific certificate handling.
type Driver interface {
	// Client returns a configured HTTP client.
	Client() *http.Client
}

// Client returns the client of the selected driver, or http.DefaultClient when none is usable.
func Client(ctx context.Context) *http.Client {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return http.DefaultClient
	}
	return d.Client()
}

// WithLogging wraps a Driver so that every HTTP request logs the URL at Debug level.
func WithLogging(d Driver) Driver {
	return &loggingDriver{inner: d}
}

type loggingDriver struct {
	inner Driver
}

func (d *loggingDriver) Client() *http.Client {
	c := d.inner.Client()
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *c
	clone.Transport = &loggingTransport{base: base}
	return &clone
}

type loggingTransport struct {
	base http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", "toolsmith/"+version.Version())
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		logging.GetLogger(req.Context()).Debug("http request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, err
	}
	logging.GetLogger(req.Context()).Debug("http request", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)
	return resp, nil
}
