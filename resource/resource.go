// Package resource retrieves stylesheets from local file system or over HTTP
// and decodes them to UTF-8.
package resource

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fspider/utils/urls"
)

// Resource is a fetched stylesheet: location it was loaded from and its
// content decoded to UTF-8.
type Resource struct {
	File    string
	Content []byte
}

// Fetcher retrieves resource by its location.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Resource, error)
}

// Dispatcher selects fetcher by location scheme: http(s) URLs go to Remote,
// everything else to Local.
type Dispatcher struct {
	Local  Fetcher
	Remote Fetcher
	log    *zap.Logger
}

// NewDispatcher creates dispatching fetcher, either of fetchers may be nil
// in which case corresponding locations are rejected.
func NewDispatcher(local, remote Fetcher, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{Local: local, Remote: remote, log: log.Named("fetcher")}
}

// Fetch implements Fetcher.
func (d *Dispatcher) Fetch(ctx context.Context, url string) (*Resource, error) {
	var f Fetcher
	switch {
	case urls.IsRemote(url):
		f = d.Remote
	case urls.IsData(url) || strings.Contains(url, "://"):
		return nil, fmt.Errorf("unsupported location %q", url)
	default:
		f = d.Local
	}
	if f == nil {
		return nil, fmt.Errorf("no fetcher configured for %q", url)
	}
	d.log.Debug("Fetching stylesheet", zap.String("url", url))
	return f.Fetch(ctx, url)
}
