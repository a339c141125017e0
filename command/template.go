package command

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Handler runs a matched command with the values extracted from the input.
type Handler func(ctx context.Context, args Args) (string, error)

// Args maps placeholder names to the text the user typed in their place.
type Args map[string]string

// Get returns the value bound to name, or "" if there is none.
func (a Args) Get(name string) string {
	return a[name]
}

// segment is either literal text or a named placeholder.
type segment struct {
	literal string
	name    string
}

func (s segment) isPlaceholder() bool {
	return s.name != ""
}

// Template is a registered command phrase such as "copy {source} to {destination}".
// Templates are immutable once registered.
type Template struct {
	pattern     string
	description string
	safe        bool
	handler     Handler

	segments []segment
	skeleton string
	// length of the skeleton in runes, used to normalise similarity
	skeletonLen int
	names       []string
}

// Definition is what an extension unit hands to the registry: a pattern,
// the handler bound to it and whether running it is side-effect free.
type Definition struct {
	Pattern     string
	Handler     Handler
	Safe        bool
	Description string
}

func newTemplate(def Definition) (*Template, error) {
	if def.Handler == nil {
		return nil, fmt.Errorf("%q: %w", def.Pattern, ErrNilHandler)
	}
	segments, err := parsePattern(def.Pattern)
	if err != nil {
		return nil, err
	}

	t := &Template{
		pattern:     def.Pattern,
		description: def.Description,
		safe:        def.Safe,
		handler:     def.Handler,
		segments:    segments,
	}

	var skeleton strings.Builder
	for _, s := range segments {
		if s.isPlaceholder() {
			t.names = append(t.names, s.name)
			continue
		}
		skeleton.WriteString(s.literal)
	}
	t.skeleton = skeleton.String()
	t.skeletonLen = utf8.RuneCountInString(t.skeleton)
	return t, nil
}

// Compile parses and validates a pattern without registering it.
func Compile(pattern string, handler Handler) (*Template, error) {
	return newTemplate(Definition{Pattern: pattern, Handler: handler})
}

// Pattern returns the pattern text exactly as registered.
func (t *Template) Pattern() string { return t.pattern }

// Description returns the optional help text.
func (t *Template) Description() string { return t.description }

// Safe reports whether the handler is purely informational.
func (t *Template) Safe() bool { return t.safe }

// Skeleton returns the literal text of the pattern with placeholders removed.
func (t *Template) Skeleton() string { return t.skeleton }

// Placeholders returns the placeholder names in pattern order.
func (t *Template) Placeholders() []string {
	return append([]string(nil), t.names...)
}

// HasPlaceholders reports whether the template takes any arguments.
func (t *Template) HasPlaceholders() bool {
	return len(t.names) > 0
}

// Format renders the pattern with values substituted for its placeholders.
// It is the inverse of Extract for values that do not contain the
// template's own literal text.
func (t *Template) Format(values map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range t.segments {
		if !s.isPlaceholder() {
			b.WriteString(s.literal)
			continue
		}
		v, ok := values[s.name]
		if !ok {
			return "", fmt.Errorf("format %q: missing value for {%s}", t.pattern, s.name)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// parsePattern splits a pattern into literal and placeholder segments.
// "{{" and "}}" stand for literal braces.
func parsePattern(pattern string) ([]segment, error) {
	invalid := func(reason string) error {
		return &InvalidPatternError{Pattern: pattern, Reason: reason}
	}

	if strings.TrimSpace(pattern) == "" {
		return nil, invalid("pattern is empty")
	}
	if strings.TrimSpace(pattern) != pattern {
		return nil, invalid("leading or trailing whitespace")
	}

	var (
		segments []segment
		literal  strings.Builder
		seen     = make(map[string]bool)
	)

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '{' && i+1 < len(pattern) && pattern[i+1] == '{':
			literal.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(pattern) && pattern[i+1] == '}':
			literal.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(pattern[i+1:], '}')
			if end < 0 {
				return nil, invalid("unclosed '{'")
			}
			name := pattern[i+1 : i+1+end]
			if !validName(name) {
				return nil, invalid(fmt.Sprintf("invalid placeholder name %q", name))
			}
			if seen[name] {
				return nil, invalid(fmt.Sprintf("placeholder {%s} used twice", name))
			}
			if literal.Len() > 0 {
				segments = append(segments, segment{literal: literal.String()})
				literal.Reset()
			} else if n := len(segments); n > 0 && segments[n-1].isPlaceholder() {
				return nil, invalid(fmt.Sprintf("placeholders {%s} and {%s} need literal text between them", segments[n-1].name, name))
			}
			seen[name] = true
			segments = append(segments, segment{name: name})
			i += end + 2
		case c == '}':
			return nil, invalid("unmatched '}'")
		default:
			literal.WriteByte(c)
			i++
		}
	}
	if literal.Len() > 0 {
		segments = append(segments, segment{literal: literal.String()})
	}

	hasLiteral := false
	for _, s := range segments {
		if !s.isPlaceholder() && strings.TrimSpace(s.literal) != "" {
			hasLiteral = true
			break
		}
	}
	if !hasLiteral {
		return nil, invalid("pattern has no literal words")
	}
	return segments, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
