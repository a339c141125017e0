package command

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Middleware wraps the handler of a template (logging, policy checks).
type Middleware func(t *Template, next Handler) Handler

// WithLogging logs each handler invocation and how long it took.
func WithLogging() Middleware {
	return func(t *Template, next Handler) Handler {
		return func(ctx context.Context, args Args) (string, error) {
			start := time.Now()
			out, err := next(ctx, args)
			ev := log.Info()
			if err != nil {
				ev = log.Warn().Err(err)
			}
			ev.Str("pattern", t.Pattern()).
				Bool("safe", t.Safe()).
				Dur("took", time.Since(start)).
				Msg("ran command")
			return out, err
		}
	}
}

// WithSafeMode refuses to run templates that are not marked safe.
func WithSafeMode() Middleware {
	return func(t *Template, next Handler) Handler {
		if t.Safe() {
			return next
		}
		return func(ctx context.Context, args Args) (string, error) {
			return "", ErrUnsafeCommand
		}
	}
}
