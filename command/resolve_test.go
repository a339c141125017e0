package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, patterns ...string) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, p := range patterns {
		require.NoError(t, reg.RegisterSafe(p, reply(p)))
	}
	return reg
}

func TestResolver_Resolve(t *testing.T) {
	reg := newTestRegistry(t,
		"say hello",
		"get current time",
		"ping {host}",
		"copy {source} to {destination}",
	)
	resolver := NewResolver(reg)

	tests := []struct {
		name    string
		input   string
		pattern string
		exact   bool
		score   float64
	}{
		{"exact", "say hello", "say hello", true, 1},
		{"exact ignoring case", "SAY Hello", "say hello", true, 1},
		{"exact with surrounding space", "  get current time\n", "get current time", true, 1},
		{"typo", "say helo", "say hello", false, 1 - 1.0/9},
		{"placeholder", "ping google.com", "ping {host}", false, 1},
		{"placeholder with typo", "png google.com", "ping {host}", false, 0.8},
		{"two placeholders", "copy a.txt to b.txt", "copy {source} to {destination}", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolver.Resolve(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, res.Template.Pattern())
			assert.Equal(t, tt.exact, res.Exact)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
		})
	}
}

func TestResolver_NoMatch(t *testing.T) {
	resolver := NewResolver(newTestRegistry(t, "say hello", "ping {host}"))

	for _, input := range []string{"", "   ", "xyzzy plugh", "reboot the mainframe"} {
		t.Run(input, func(t *testing.T) {
			res, err := resolver.Resolve(input)
			require.ErrorIs(t, err, ErrNoMatch)
			assert.Nil(t, res.Template)
		})
	}
}

func TestResolver_EmptyRegistry(t *testing.T) {
	_, err := NewResolver(NewRegistry()).Resolve("say hello")
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestResolver_ExactBeatsPlaceholder(t *testing.T) {
	// Both score 1; the literal template wins in the exact phase.
	reg := newTestRegistry(t, "get {thing}", "get current time")
	res, err := NewResolver(reg).Resolve("get current time")
	require.NoError(t, err)
	assert.Equal(t, "get current time", res.Template.Pattern())
	assert.True(t, res.Exact)
}

func TestResolver_TieGoesToFirstRegistered(t *testing.T) {
	reg := newTestRegistry(t, "open files", "open filed")
	res, err := NewResolver(reg).Resolve("open filex")
	require.NoError(t, err)
	assert.Equal(t, "open files", res.Template.Pattern())

	reg = newTestRegistry(t, "open filed", "open files")
	res, err = NewResolver(reg).Resolve("open filex")
	require.NoError(t, err)
	assert.Equal(t, "open filed", res.Template.Pattern())
}

func TestResolver_Threshold(t *testing.T) {
	reg := newTestRegistry(t, "say hello")

	strict := NewResolver(reg, WithThreshold(0.95))
	assert.Equal(t, 0.95, strict.Threshold())
	_, err := strict.Resolve("say helo")
	require.ErrorIs(t, err, ErrNoMatch)

	// exact matches ignore the threshold
	_, err = strict.Resolve("say hello")
	require.NoError(t, err)

	loose := NewResolver(reg, WithThreshold(0.3))
	res, err := loose.Resolve("sy hlo")
	require.NoError(t, err)
	assert.Equal(t, "say hello", res.Template.Pattern())
}

func TestResolver_InvalidThresholdIgnored(t *testing.T) {
	reg := NewRegistry()
	for _, v := range []float64{0, -1, 1.5} {
		assert.Equal(t, DefaultThreshold, NewResolver(reg, WithThreshold(v)).Threshold())
	}
}

func TestResolver_CacheFollowsRegistrations(t *testing.T) {
	reg := newTestRegistry(t, "say hello")
	resolver := NewResolver(reg)

	res, err := resolver.Resolve("say helo")
	require.NoError(t, err)
	assert.Equal(t, "say hello", res.Template.Pattern())

	_, err = resolver.Resolve("volume up")
	require.ErrorIs(t, err, ErrNoMatch)

	require.NoError(t, reg.RegisterSafe("say helo", reply("helo")))
	require.NoError(t, reg.RegisterSafe("volume up", reply("up")))

	res, err = resolver.Resolve("say helo")
	require.NoError(t, err)
	assert.Equal(t, "say helo", res.Template.Pattern())
	assert.True(t, res.Exact)

	res, err = resolver.Resolve("volume up")
	require.NoError(t, err)
	assert.Equal(t, "volume up", res.Template.Pattern())
}

func TestResolver_WithoutCache(t *testing.T) {
	reg := newTestRegistry(t, "say hello")
	resolver := NewResolver(reg, WithCacheTTL(0))
	assert.Nil(t, resolver.cache)

	for i := 0; i < 3; i++ {
		res, err := resolver.Resolve("say helo")
		require.NoError(t, err)
		assert.Equal(t, "say hello", res.Template.Pattern())
	}
}
