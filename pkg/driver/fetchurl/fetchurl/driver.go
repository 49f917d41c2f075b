package fetchurl

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/lucasew/fetchurl"
	"toolsmith/pkg/config"
	"toolsmith/pkg/driver"
	fetchurldriver "toolsmith/pkg/driver/fetchurl"
	"toolsmith/pkg/driver/httpclient"
)

func init() {
	driver.Register[fetchurldriver.Driver](&Provider{})
}

type Provider struct{}

func (p *Provider) ID() string         { return "fetchurl" }
func (p *Provider) Name() string       { return "fetchurl" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	return nil
}

func (p *Provider) New(ctx context.Context) (fetchurldriver.Driver, error) {
	return &Driver{fetcher: newFetcher(httpclient.Client(ctx))}, nil
}

// newFetcher tries configured mirrors first, then FETCHURL_SERVERS, then the
// servers fetchurl picks up on its own.
func newFetcher(client *http.Client) *fetchurl.Fetcher {
	f := fetchurl.NewFetcher(client)
	servers := append([]string{}, config.Current().Download.Mirrors...)
	servers = append(servers, getServersFromEnv()...)
	f.Servers = append(servers, f.Servers...)
	return f
}

type Driver struct {
	fetcher *fetchurl.Fetcher
}

func (d *Driver) Fetch(ctx context.Context, opts fetchurldriver.FetchOptions) error {
	if len(opts.URLs) == 0 {
		return fmt.Errorf("no URLs provided")
	}
	if opts.Out == nil {
		return fmt.Errorf("no output writer provided")
	}
	return d.fetcher.Fetch(ctx, fetchurl.FetchOptions{
		URLs: opts.URLs,
		Algo: opts.Algo,
		Hash: opts.Hash,
		Out:  opts.Out,
	})
}

// getServersFromEnv reads the comma separated FETCHURL_SERVERS variable.
func getServersFromEnv() []string {
	env := os.Getenv("FETCHURL_SERVERS")
	if env == "" {
		return nil
	}
	var servers []string
	for _, s := range strings.Split(env, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	return servers
}
