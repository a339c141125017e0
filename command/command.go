// Package command resolves free-form text to a registered command and runs it.
//
// A command is a Template such as "copy {source} to {destination}" bound to
// a Handler. The Dispatcher takes raw input, asks the Resolver for the best
// template (an exact literal match first, then a typo tolerant fuzzy match),
// extracts the placeholder values and calls the handler. Every outcome is
// reported as a Result whose String form is what a user sees.
package command

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"
)

// snapshot is an immutable view of the registry. Readers never lock.
type snapshot struct {
	generation uint64
	templates  []*Template
	byPattern  map[string]*Template
}

// Registry holds command templates in registration order.
type Registry struct {
	mu   sync.Mutex // serialises writers only
	snap atomic.Pointer[snapshot]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.snap.Store(&snapshot{byPattern: make(map[string]*Template)})
	return r
}

// Register adds a command that may change system state.
func (r *Registry) Register(pattern string, handler Handler) error {
	return r.Add(Definition{Pattern: pattern, Handler: handler})
}

// RegisterSafe adds a purely informational command.
func (r *Registry) RegisterSafe(pattern string, handler Handler) error {
	return r.Add(Definition{Pattern: pattern, Handler: handler, Safe: true})
}

// Add registers a single definition.
func (r *Registry) Add(def Definition) error {
	return r.AddAll([]Definition{def})
}

// AddAll registers every definition or none of them. Any invalid pattern
// or duplicate, within defs or against what is already registered, leaves
// the registry untouched.
func (r *Registry) AddAll(defs []Definition) error {
	if len(defs) == 0 {
		return nil
	}

	built := make([]*Template, 0, len(defs))
	for _, def := range defs {
		t, err := newTemplate(def)
		if err != nil {
			return err
		}
		built = append(built, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	next := &snapshot{
		generation: cur.generation + 1,
		templates:  make([]*Template, len(cur.templates), len(cur.templates)+len(built)),
		byPattern:  make(map[string]*Template, len(cur.byPattern)+len(built)),
	}
	copy(next.templates, cur.templates)
	for k, v := range cur.byPattern {
		next.byPattern[k] = v
	}

	for _, t := range built {
		if _, exists := next.byPattern[t.pattern]; exists {
			return &DuplicateTemplateError{Pattern: t.pattern}
		}
		next.byPattern[t.pattern] = t
		next.templates = append(next.templates, t)
	}
	r.snap.Store(next)

	for _, t := range built {
		log.Info().Str("pattern", t.pattern).Bool("safe", t.safe).Msg("adding command template to registry")
	}
	return nil
}

// Get returns the template registered with exactly this pattern text.
func (r *Registry) Get(pattern string) (*Template, bool) {
	t, ok := r.snap.Load().byPattern[pattern]
	return t, ok
}

// Lookup finds a template by exact text. Literal templates must equal their
// stored pattern byte for byte, escaped braces included; templates with
// placeholders match when their literal parts occur in text in order,
// compared case-sensitively.
func (r *Registry) Lookup(text string) (*Template, bool) {
	snap := r.snap.Load()
	for _, t := range snap.templates {
		if !t.HasPlaceholders() && t.pattern == text {
			return t, true
		}
	}
	runes := []rune(text)
	for _, t := range snap.templates {
		if !t.HasPlaceholders() {
			continue
		}
		if _, err := match(runes, t, false); err == nil {
			return t, true
		}
	}
	return nil, false
}

// Patterns returns every registered pattern in registration order.
func (r *Registry) Patterns() []string {
	snap := r.snap.Load()
	patterns := make([]string, len(snap.templates))
	for i, t := range snap.templates {
		patterns[i] = t.pattern
	}
	return patterns
}

// Templates returns every registered template in registration order.
func (r *Registry) Templates() []*Template {
	return append([]*Template(nil), r.snap.Load().templates...)
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	return len(r.snap.Load().templates)
}

// Generation increases by one on every successful registration batch.
func (r *Registry) Generation() uint64 {
	return r.snap.Load().generation
}

// Search ranks patterns by fuzzy subsequence match against query, best
// first. An empty query returns every pattern. limit <= 0 means no limit.
func (r *Registry) Search(query string, limit int) []string {
	patterns := r.Patterns()
	query = strings.TrimSpace(query)
	if query == "" {
		if limit > 0 && limit < len(patterns) {
			patterns = patterns[:limit]
		}
		return patterns
	}

	matches := fuzzy.Find(strings.ToLower(query), lowerAll(patterns))
	results := make([]string, 0, len(matches))
	for _, m := range matches {
		results = append(results, patterns[m.Index])
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results
}

func (r *Registry) snapshot() *snapshot {
	return r.snap.Load()
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
