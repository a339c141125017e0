package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// FailureMarker prefixes every result string that reports a failure.
	FailureMarker = "❌"

	// UnknownCommandMarker appears in the result string when nothing matched.
	UnknownCommandMarker = "Unknown command"

	// EmptyCommandMessage is returned for empty or whitespace-only input.
	EmptyCommandMessage = `⚠️ Empty command. Try "list commands" to see what I can do.`

	tracerName = "github.com/caelumsys/caelum/command"
)

// Status tags the outcome of an execution.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusNoMatch
	StatusMismatch
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusNoMatch:
		return "no_match"
	case StatusMismatch:
		return "mismatch"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes one execution. Its String form is the user-facing text.
type Result struct {
	ID      string
	Status  Status
	Input   string
	Pattern string
	Args    Args
	Score   float64
	Exact   bool
	// Correction shows how a fuzzy matched input differs from the
	// template, e.g. "say hel[+l]o". Empty for exact matches.
	Correction string
	Output     string
	Err        error
	Duration   time.Duration
}

// OK reports whether the handler ran and succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

func (r Result) String() string {
	switch r.Status {
	case StatusOK:
		return r.Output
	case StatusEmpty:
		return EmptyCommandMessage
	case StatusNoMatch:
		return fmt.Sprintf("%s %s: %q", FailureMarker, UnknownCommandMarker, r.Input)
	case StatusMismatch:
		return fmt.Sprintf("%s Could not understand arguments for %q", FailureMarker, r.Pattern)
	default:
		cause := r.Err
		var herr *HandlerError
		if errors.As(cause, &herr) {
			cause = herr.Err
		}
		return fmt.Sprintf("%s Error running %q: %v", FailureMarker, r.Pattern, cause)
	}
}

// Observer is told about every result, e.g. to keep a history. Errors are
// logged and otherwise ignored.
type Observer interface {
	Observe(ctx context.Context, r Result) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, r Result) error

func (f ObserverFunc) Observe(ctx context.Context, r Result) error {
	return f(ctx, r)
}

// Dispatcher is the single entry point turning raw text into a Result.
type Dispatcher struct {
	resolver   *Resolver
	middleware []Middleware
	observers  []Observer
	tracer     trace.Tracer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMiddleware wraps every handler; the first middleware is outermost.
func WithMiddleware(mws ...Middleware) DispatcherOption {
	return func(d *Dispatcher) {
		d.middleware = append(d.middleware, mws...)
	}
}

// WithObserver registers observers notified after each execution.
func WithObserver(obs ...Observer) DispatcherOption {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, obs...)
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// NewDispatcher returns a dispatcher resolving through resolver.
func NewDispatcher(resolver *Resolver, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{resolver: resolver}
	for _, opt := range opts {
		opt(d)
	}
	if d.tracer == nil {
		d.tracer = otel.Tracer(tracerName)
	}
	return d
}

// Resolver returns the resolver used by the dispatcher.
func (d *Dispatcher) Resolver() *Resolver {
	return d.resolver
}

// Run executes input and returns the user-facing string. It never panics.
func (d *Dispatcher) Run(ctx context.Context, input string) string {
	return d.Execute(ctx, input).String()
}

// Execute resolves input, extracts its arguments and runs the handler.
// Every failure mode is reported in the Result, never as a panic.
func (d *Dispatcher) Execute(ctx context.Context, input string) Result {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "command.execute")
	defer span.End()

	res := d.execute(ctx, strings.TrimSpace(input))
	res.ID = uuid.NewString()
	res.Duration = time.Since(start)

	span.SetAttributes(
		attribute.String("command.status", res.Status.String()),
		attribute.String("command.pattern", res.Pattern),
		attribute.Bool("command.exact", res.Exact),
	)
	if res.Status == StatusFailed {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}

	log.Debug().
		Str("id", res.ID).
		Str("input", res.Input).
		Str("pattern", res.Pattern).
		Stringer("status", res.Status).
		Dur("took", res.Duration).
		Msg("executed command")

	for _, o := range d.observers {
		d.notify(ctx, o, res)
	}
	return res
}

func (d *Dispatcher) notify(ctx context.Context, o Observer, res Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("id", res.ID).Interface("panic", p).Msg("command observer panicked")
		}
	}()
	if err := o.Observe(ctx, res); err != nil {
		log.Warn().Err(err).Str("id", res.ID).Msg("command observer failed")
	}
}

func (d *Dispatcher) execute(ctx context.Context, text string) Result {
	res := Result{Input: text}
	if text == "" {
		res.Status = StatusEmpty
		return res
	}

	resolution, err := d.resolver.Resolve(text)
	if err != nil {
		res.Status = StatusNoMatch
		res.Err = err
		return res
	}

	t := resolution.Template
	res.Pattern = t.pattern
	res.Score = resolution.Score
	res.Exact = resolution.Exact
	if !resolution.Exact && !t.HasPlaceholders() {
		res.Correction = correction(text, t.skeleton)
	}

	args, err := Extract(text, t)
	if err != nil {
		res.Status = StatusMismatch
		res.Err = err
		return res
	}
	res.Args = args

	out, err := d.invoke(ctx, t, args)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	res.Status = StatusOK
	res.Output = out
	return res
}

// invoke runs the handler behind the middleware chain, turning errors and
// panics into *HandlerError.
func (d *Dispatcher) invoke(ctx context.Context, t *Template, args Args) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("pattern", t.pattern).Interface("panic", p).Msg("command handler panicked")
			out, err = "", &HandlerError{Pattern: t.pattern, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	h := t.handler
	for i := len(d.middleware) - 1; i >= 0; i-- {
		h = d.middleware[i](t, h)
	}

	out, err = h(ctx, args)
	if err != nil {
		return "", &HandlerError{Pattern: t.pattern, Err: err}
	}
	return out, nil
}

// correction renders the edits turning input into the matched text.
func correction(input, matched string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(strings.ToLower(input), strings.ToLower(matched), false)

	var b strings.Builder
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(diff.Text)
		case diffmatchpatch.DiffInsert:
			b.WriteString("[+" + diff.Text + "]")
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + diff.Text + "]")
		}
	}
	return b.String()
}
