package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultThreshold is the lowest similarity accepted as a fuzzy match.
const DefaultThreshold = 0.6

// Resolution is the template chosen for an input.
type Resolution struct {
	Template *Template
	Input    string
	Score    float64
	// Exact is set when a literal template matched without fuzziness.
	Exact bool
}

// Resolver picks the single best template for free-form input.
type Resolver struct {
	registry  *Registry
	threshold float64
	cache     *resolveCache
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithThreshold sets the minimum fuzzy similarity, in (0, 1].
func WithThreshold(threshold float64) ResolverOption {
	return func(r *Resolver) {
		if threshold > 0 && threshold <= 1 {
			r.threshold = threshold
		}
	}
}

// WithCacheTTL sets how long resolutions are memoised. Zero disables it.
func WithCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = newResolveCache(ttl)
	}
}

// NewResolver returns a resolver over registry.
func NewResolver(registry *Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry:  registry,
		threshold: DefaultThreshold,
		cache:     newResolveCache(DefaultCacheTTL),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the fuzzy acceptance threshold in use.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Registry returns the registry the resolver searches.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve returns the best template for input or an error wrapping ErrNoMatch.
//
// A literal template equal to the input, ignoring case, wins outright and
// the first registered one is taken. Otherwise every template is scored
// and the highest score at or above the threshold wins, ties going to the
// template registered first.
func (r *Resolver) Resolve(input string) (Resolution, error) {
	text := strings.TrimSpace(input)
	snap := r.registry.snapshot()

	entry, ok := r.cache.Get(snap.generation, text)
	if !ok {
		entry = r.resolve(snap.templates, text)
		r.cache.Set(snap.generation, text, entry)
	}

	if entry.template == nil {
		return Resolution{Input: text}, fmt.Errorf("%w: %q", ErrNoMatch, text)
	}
	return Resolution{
		Template: entry.template,
		Input:    text,
		Score:    entry.score,
		Exact:    entry.exact,
	}, nil
}

func (r *Resolver) resolve(templates []*Template, text string) cacheEntry {
	if text == "" {
		return cacheEntry{}
	}

	for _, t := range templates {
		if !t.HasPlaceholders() && strings.EqualFold(t.skeleton, text) {
			return cacheEntry{template: t, score: 1, exact: true}
		}
	}

	input := lowerRunes(text)
	var (
		best      *Template
		bestScore float64
	)
	for _, t := range templates {
		score := t.similarity(input)
		if score < r.threshold {
			continue
		}
		if best == nil || score > bestScore {
			best, bestScore = t, score
		}
	}

	if best == nil {
		log.Debug().Str("input", text).Msg("no command template matched")
		return cacheEntry{}
	}
	log.Debug().
		Str("input", text).
		Str("pattern", best.pattern).
		Float64("score", bestScore).
		Msg("fuzzy matched command template")
	return cacheEntry{template: best, score: bestScore}
}
