package command

import (
	"strings"
	"unicode"
)

// Extract recovers placeholder values from input for an already chosen
// template. Literal text is matched ignoring case; captured values are
// trimmed of surrounding whitespace. Templates without placeholders
// always succeed with an empty Args.
//
// The error, if any, satisfies errors.Is(err, ErrTemplateMismatch).
func Extract(input string, t *Template) (Args, error) {
	return match([]rune(strings.TrimSpace(input)), t, true)
}

// match walks the literal segments of t through src in order. A leading
// literal must start the input, a literal after a placeholder is searched
// for forward and a trailing literal must end the input. Each placeholder
// captures what lies between its neighbouring literals.
func match(src []rune, t *Template, fold bool) (Args, error) {
	args := make(Args, len(t.names))
	if !t.HasPlaceholders() {
		return args, nil
	}

	cmp := src
	if fold {
		cmp = make([]rune, len(src))
		for i, r := range src {
			cmp[i] = unicode.ToLower(r)
		}
	}

	pos := 0
	pending := ""
	for i, s := range t.segments {
		if s.isPlaceholder() {
			pending = s.name
			continue
		}

		literal := []rune(s.literal)
		if fold {
			for k, r := range literal {
				literal[k] = unicode.ToLower(r)
			}
		}

		if pending == "" {
			if !equalAt(cmp, pos, literal) {
				return nil, mismatch(t, src, s.literal)
			}
			pos += len(literal)
			continue
		}

		var at int
		if i == len(t.segments)-1 {
			at = len(cmp) - len(literal)
			if at < pos || !equalAt(cmp, at, literal) {
				return nil, mismatch(t, src, s.literal)
			}
		} else {
			at = indexFrom(cmp, pos, literal)
			if at < 0 {
				return nil, mismatch(t, src, s.literal)
			}
		}
		args[pending] = strings.TrimSpace(string(src[pos:at]))
		pending = ""
		pos = at + len(literal)
	}

	if pending != "" {
		args[pending] = strings.TrimSpace(string(src[pos:]))
	}
	return args, nil
}

func mismatch(t *Template, src []rune, literal string) error {
	return &MismatchError{Pattern: t.pattern, Input: string(src), Literal: literal}
}

func equalAt(s []rune, at int, sub []rune) bool {
	if at < 0 || at+len(sub) > len(s) {
		return false
	}
	for i, r := range sub {
		if s[at+i] != r {
			return false
		}
	}
	return true
}

func indexFrom(s []rune, from int, sub []rune) int {
	for at := from; at+len(sub) <= len(s); at++ {
		if equalAt(s, at, sub) {
			return at
		}
	}
	return -1
}
