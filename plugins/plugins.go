// Package plugins holds the built-in command units.
//
// Each exported constructor returns a loader.Unit. Builtins lists them in
// the order they are registered at startup.
package plugins

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/loader"
)

// DefaultTimeout bounds network calls made by the network and web units.
const DefaultTimeout = 5 * time.Second

type options struct {
	client  *http.Client
	timeout time.Duration
	now     func() time.Time
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Option configures the built-in units.
type Option func(*options)

// WithHTTPClient sets the client used by the web unit.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithTimeout bounds network calls.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithClock replaces time.Now for the time and date commands.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) *options {
	o := &options{
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: o.timeout}
	}
	if o.dial == nil {
		d := &net.Dialer{Timeout: o.timeout}
		o.dial = d.DialContext
	}
	return o
}

// Builtins returns every compiled-in unit. reg is the registry the units
// will be loaded into; the misc unit reads it to list commands.
func Builtins(reg *command.Registry, opts ...Option) []loader.Unit {
	return []loader.Unit{
		Misc(reg, opts...),
		System(),
		Network(opts...),
		Files(),
		Web(opts...),
	}
}

// expandPath resolves a leading "~" to the home directory and cleans the path.
func expandPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), `"'`)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if p == "" {
		return p
	}
	return filepath.Clean(p)
}
