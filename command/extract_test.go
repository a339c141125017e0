package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    Args
	}{
		{
			name:    "two placeholders",
			pattern: "copy {source} to {destination}",
			input:   "copy a.txt to b.txt",
			want:    Args{"source": "a.txt", "destination": "b.txt"},
		},
		{
			name:    "literal case ignored, value case kept",
			pattern: "copy {source} to {destination}",
			input:   "COPY Report.PDF TO Archive/",
			want:    Args{"source": "Report.PDF", "destination": "Archive/"},
		},
		{
			name:    "values trimmed",
			pattern: "ping {host}",
			input:   "  ping    google.com  ",
			want:    Args{"host": "google.com"},
		},
		{
			name:    "empty capture",
			pattern: "copy {source} to {destination}",
			input:   "copy  to b",
			want:    Args{"source": "", "destination": "b"},
		},
		{
			name:    "value with spaces",
			pattern: "search commands for {query}",
			input:   "search commands for get the time",
			want:    Args{"query": "get the time"},
		},
		{
			name:    "trailing literal",
			pattern: "open {app} now",
			input:   "open safari now",
			want:    Args{"app": "safari"},
		},
		{
			name:    "trailing literal repeated in value",
			pattern: "open {app} now",
			input:   "open now now",
			want:    Args{"app": "now"},
		},
		{
			name:    "leading placeholder",
			pattern: "{name} is here",
			input:   "Alice is here",
			want:    Args{"name": "Alice"},
		},
		{
			name:    "first occurrence of middle literal",
			pattern: "copy {source} to {destination}",
			input:   "copy a to b to c",
			want:    Args{"source": "a", "destination": "b to c"},
		},
		{
			name:    "unicode",
			pattern: "say {greeting} to {name}",
			input:   "say héllo to Zoë",
			want:    Args{"greeting": "héllo", "name": "Zoë"},
		},
		{
			name:    "literal only",
			pattern: "say hello",
			input:   "say hello",
			want:    Args{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Compile(tt.pattern, noop)
			require.NoError(t, err)

			args, err := Extract(tt.input, tmpl)
			require.NoError(t, err)
			require.NotNil(t, args)
			assert.Equal(t, tt.want, args)
		})
	}
}

func TestExtract_Mismatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
	}{
		{"missing argument", "ping {host}", "ping"},
		{"missing middle literal", "copy {source} to {destination}", "copy a into b"},
		{"wrong leading literal", "copy {source} to {destination}", "cpy a to b"},
		{"missing trailing literal", "open {app} now", "open safari"},
		{"trailing literal not at end", "open {app} now", "open safari now please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Compile(tt.pattern, noop)
			require.NoError(t, err)

			args, err := Extract(tt.input, tmpl)
			require.ErrorIs(t, err, ErrTemplateMismatch)
			assert.Nil(t, args)

			var mismatch *MismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.pattern, mismatch.Pattern)
		})
	}
}

// Extract undoes Format whenever the values do not contain the template's
// own literal text.
func TestExtract_FormatRoundTrip(t *testing.T) {
	patterns := []string{
		"resize {image} to {width}x{height}",
		"copy {source} to {destination}",
		"ping {host}",
		"{name} is here",
		"open {app} now",
		"check port {port} on {host}",
	}

	rapid.Check(t, func(t *rapid.T) {
		pattern := rapid.SampledFrom(patterns).Draw(t, "pattern")
		tmpl, err := Compile(pattern, noop)
		require.NoError(t, err)

		var literals []string
		for _, s := range tmpl.segments {
			if !s.isPlaceholder() {
				literals = append(literals, strings.ToLower(strings.TrimSpace(s.literal)))
			}
		}
		value := rapid.StringMatching(`[a-z0-9._-]{1,12}`).Filter(func(v string) bool {
			for _, lit := range literals {
				if lit != "" && strings.Contains(v, lit) {
					return false
				}
			}
			return true
		})

		values := make(map[string]string)
		for _, name := range tmpl.Placeholders() {
			values[name] = value.Draw(t, name)
		}

		input, err := tmpl.Format(values)
		require.NoError(t, err)

		args, err := Extract(input, tmpl)
		require.NoError(t, err)
		for name, want := range values {
			require.Equal(t, want, args.Get(name), "input %q", input)
		}
	})
}
