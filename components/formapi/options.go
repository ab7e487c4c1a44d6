package formapi

import (
	"log/slog"
	"net/http"

	"github.com/goliatone/go-formfill/pkg/orchestrator"
)

// GuardFunc runs before the handler body; returning an error rejects the
// request (status taken from HTTPError when implemented).
type GuardFunc func(r *http.Request) error

// Options configures the form-save component.
type Options struct {
	RoutePath    string
	MaxBodyBytes int64
	Guard        GuardFunc
	Pipeline     *orchestrator.Orchestrator
	Logger       *slog.Logger
}

// OptionFn mutates Options during construction.
type OptionFn func(*Options)

// DefaultOptions returns the component defaults.
func DefaultOptions() Options {
	return Options{
		RoutePath:    "/api/forms/save",
		MaxBodyBytes: 32 << 20,
		Logger:       slog.Default(),
	}
}

// NewOptions builds Options from defaults plus overrides, applying clamps.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/forms/save"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 32 << 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// WithRoutePath overrides the registered route path.
func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithMaxBodyBytes caps the accepted request body size.
func WithMaxBodyBytes(limit int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxBodyBytes = limit
	}
}

// WithGuard installs a request guard (auth checks, rate limits).
func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithPipeline injects the completion pipeline the handler drives.
func WithPipeline(p *orchestrator.Orchestrator) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Pipeline = p
	}
}

// WithLogger injects the component logger.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil || logger == nil {
			return
		}
		o.Logger = logger
	}
}
