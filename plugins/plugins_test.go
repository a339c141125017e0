package plugins

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/loader"
)

// setup loads the units returned by build into a fresh registry and
// returns a dispatcher over it.
func setup(t *testing.T, build func(reg *command.Registry) []loader.Unit) *command.Dispatcher {
	t.Helper()
	reg := command.NewRegistry()
	report := loader.Load(reg, build(reg)...)
	require.NoError(t, report.Err())
	return command.NewDispatcher(command.NewResolver(reg))
}

func run(t *testing.T, d *command.Dispatcher, input string) command.Result {
	t.Helper()
	return d.Execute(context.Background(), input)
}

func TestBuiltins_LoadCleanly(t *testing.T) {
	reg := command.NewRegistry()
	report := loader.Load(reg, Builtins(reg)...)
	require.NoError(t, report.Err())
	assert.Equal(t, []string{"misc", "system", "network", "files", "web"}, report.Loaded)
	assert.Equal(t, reg.Len(), report.Commands)

	for _, p := range []string{"say hello", "get system info", "ping {host}", "delete file {path}", "get title of {url}"} {
		_, ok := reg.Get(p)
		assert.True(t, ok, p)
	}
}

func TestBuiltins_SafeFlags(t *testing.T) {
	reg := command.NewRegistry()
	require.NoError(t, loader.Load(reg, Builtins(reg)...).Err())

	unsafe := map[string]bool{
		"create file {path}":             true,
		"copy {source} to {destination}": true,
		"move {source} to {destination}": true,
		"delete file {path}":             true,
	}
	for _, tmpl := range reg.Templates() {
		assert.Equal(t, !unsafe[tmpl.Pattern()], tmpl.Safe(), tmpl.Pattern())
		assert.NotEmpty(t, tmpl.Description(), tmpl.Pattern())
	}
}

func TestMisc(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC) }
	d := setup(t, func(reg *command.Registry) []loader.Unit {
		return []loader.Unit{Misc(reg, WithClock(clock)), Files()}
	})

	hello := run(t, d, "say hello")
	require.True(t, hello.OK())
	assert.Contains(t, hello.Output, "Hello")
	assert.Contains(t, hello.Output, "Caelum")

	assert.Equal(t, "🕒 Current time: 14:07:09", run(t, d, "get current time").Output)
	assert.Equal(t, "📅 Today is Tuesday, 5 March 2024", run(t, d, "get current date").Output)

	list := run(t, d, "list commands")
	require.True(t, list.OK())
	assert.Contains(t, list.Output, "say hello")
	assert.Contains(t, list.Output, "delete file {path}")

	search := run(t, d, "search commands for delete")
	require.True(t, search.OK())
	assert.Contains(t, search.Output, "delete file {path}")
	assert.NotContains(t, search.Output, "say hello")

	none := run(t, d, "search commands for qqqq")
	require.True(t, none.OK())
	assert.Contains(t, none.Output, "No commands match")

	assert.True(t, run(t, d, "help").OK())
}

func TestSystem(t *testing.T) {
	d := setup(t, func(*command.Registry) []loader.Unit {
		return []loader.Unit{System()}
	})

	for _, input := range []string{"get system info", "get go version", "get memory usage", "get uptime", "get cpu count"} {
		t.Run(input, func(t *testing.T) {
			res := run(t, d, input)
			require.True(t, res.OK(), res.String())
			assert.Equal(t, input, res.Pattern)
			assert.NotEmpty(t, res.Output)
		})
	}
}

func TestExpandPath(t *testing.T) {
	assert.Equal(t, "", expandPath("  "))
	assert.Equal(t, "a/b", expandPath(`"a//b/"`))
	assert.NotContains(t, expandPath("~/notes.txt"), "~")
}
