// Package engine assembles a ready to use command engine: it builds the
// registry, loads the built-in units and any macro manifest, and only then
// creates the dispatcher over the finished registry.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/config"
	"github.com/caelumsys/caelum/data"
	"github.com/caelumsys/caelum/loader"
	"github.com/caelumsys/caelum/macro"
	"github.com/caelumsys/caelum/plugins"
)

// Engine is the public surface: text in, text out.
type Engine struct {
	cfg        config.Config
	registry   *command.Registry
	dispatcher *command.Dispatcher
	history    *data.History
	report     loader.Report
}

type options struct {
	units      []loader.Unit
	noBuiltins bool
	plugins    []plugins.Option
	dispatcher []command.DispatcherOption
}

// Option configures New.
type Option func(*options)

// WithUnits loads extra units after the built-in ones.
func WithUnits(units ...loader.Unit) Option {
	return func(o *options) { o.units = append(o.units, units...) }
}

// WithoutBuiltins skips the compiled-in units.
func WithoutBuiltins() Option {
	return func(o *options) { o.noBuiltins = true }
}

// WithPluginOptions passes options to the built-in units.
func WithPluginOptions(opts ...plugins.Option) Option {
	return func(o *options) { o.plugins = append(o.plugins, opts...) }
}

// WithDispatcherOptions passes extra options to the dispatcher, such as
// more middleware or observers.
func WithDispatcherOptions(opts ...command.DispatcherOption) Option {
	return func(o *options) { o.dispatcher = append(o.dispatcher, opts...) }
}

// New builds an engine from cfg. Units that fail to load are logged and
// reported by Report; they never stop the engine from starting. Only a
// history database that cannot be opened is fatal.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{
		cfg:      cfg,
		registry: command.NewRegistry(),
	}

	var units []loader.Unit
	if !o.noBuiltins {
		units = append(units, plugins.Builtins(e.registry, o.plugins...)...)
	}
	units = append(units, o.units...)
	e.report = loader.Load(e.registry, units...)
	if cfg.Macros != "" {
		// macros load last so their steps can name any compiled-in command;
		// the steps run through the dispatcher, which exists by the time
		// any handler is invoked
		e.report.Merge(loader.Load(e.registry, macro.FileUnit(cfg.Macros, macro.ExecutorFunc(e.Execute))))
	}
	for _, f := range e.report.Failed {
		log.Warn().Err(f.Err).Str("unit", f.Unit).Msg("unit skipped")
	}

	dopts := []command.DispatcherOption{command.WithMiddleware(command.WithLogging())}
	if cfg.SafeMode {
		dopts = append(dopts, command.WithMiddleware(command.WithSafeMode()))
	}

	if cfg.History.Enabled {
		data.SetDataDir(cfg.DataDir)
		if err := data.EnsureDir(); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		h, err := data.Open(data.Path(cfg.History.File))
		if err != nil {
			return nil, err
		}
		e.history = h
		dopts = append(dopts, command.WithObserver(h))
	}
	dopts = append(dopts, o.dispatcher...)

	resolver := command.NewResolver(e.registry,
		command.WithThreshold(cfg.Threshold),
		command.WithCacheTTL(cfg.Cache.TTL),
	)
	e.dispatcher = command.NewDispatcher(resolver, dopts...)

	log.Info().
		Int("commands", e.registry.Len()).
		Strs("units", e.report.Loaded).
		Float64("threshold", resolver.Threshold()).
		Bool("safe_mode", cfg.SafeMode).
		Msg("engine ready")
	return e, nil
}

// Do runs text and returns what the user should see.
func (e *Engine) Do(ctx context.Context, text string) string {
	return e.Execute(ctx, text).String()
}

// Execute runs text and returns the full result.
func (e *Engine) Execute(ctx context.Context, text string) command.Result {
	return e.dispatcher.Execute(ctx, text)
}

// Commands returns every registered pattern in registration order.
func (e *Engine) Commands() []string {
	return e.registry.Patterns()
}

// Registry returns the engine's registry. Registering into it later is
// allowed and visible to the next Execute.
func (e *Engine) Registry() *command.Registry {
	return e.registry
}

// Dispatcher returns the engine's dispatcher.
func (e *Engine) Dispatcher() *command.Dispatcher {
	return e.dispatcher
}

// History returns the command history, or nil when it is disabled.
func (e *Engine) History() *data.History {
	return e.history
}

// Report describes which units were loaded.
func (e *Engine) Report() loader.Report {
	return e.report
}

// Close releases the history database.
func (e *Engine) Close() error {
	var errs []error
	if e.history != nil {
		errs = append(errs, e.history.Close())
	}
	return errors.Join(errs...)
}
