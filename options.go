package nodetransform

import (
	"context"
	"errors"
	"log/slog"

	"github.com/albertocavalcante/go-nodetransform/loader"
)

// Option configures how a transform runs.
type Option func(*transformConfig) error

type transformConfig struct {
	loader      loader.Loader
	concurrency int

	// logger is the structured logger for debug/info output.
	// If nil, logging is disabled (silent mode).
	logger *slog.Logger
}

// WithLoader sets the loader used to fetch module source.
// The default is loader.Default().
func WithLoader(l loader.Loader) Option {
	return func(c *transformConfig) error {
		if l == nil {
			return errors.New("loader must not be nil")
		}
		c.loader = l
		return nil
	}
}

// WithConcurrency bounds concurrent loads and concurrent module rewrites.
// Zero selects the default.
func WithConcurrency(n int) Option {
	return func(c *transformConfig) error {
		c.concurrency = n
		return nil
	}
}

// WithLogger sets a structured logger for transform diagnostics.
// If not set, logging is disabled (silent mode).
//
// Any slog backend works. For example, zap users can use:
//
//	logger := slog.New(zapslog.NewHandler(zapLogger.Core()))
//	nodetransform.Transform(ctx, opts, nodetransform.WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *transformConfig) error {
		c.logger = l
		return nil
	}
}

func (c *transformConfig) validate() error {
	if c.concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
func (c *transformConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func newTransformConfig(opts ...Option) (*transformConfig, error) {
	c := &transformConfig{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.loader == nil {
		c.loader = loader.Default()
	}
	return c, nil
}
