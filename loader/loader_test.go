package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caelumsys/caelum/command"
)

func say(s string) command.Handler {
	return func(context.Context, command.Args) (string, error) { return s, nil }
}

func TestLoad_IsolatesFailingUnits(t *testing.T) {
	reg := command.NewRegistry()

	units := []Unit{
		Static("media",
			command.Definition{Pattern: "pause music", Handler: say("paused")},
			command.Definition{Pattern: "volume up", Handler: say("louder")},
		),
		{Name: "broken", Commands: func() ([]command.Definition, error) {
			return nil, errors.New("missing dependency")
		}},
		{Name: "panicky", Commands: func() ([]command.Definition, error) {
			panic("init exploded")
		}},
		Static("duplicate",
			command.Definition{Pattern: "take screenshot", Handler: say("shot")},
			command.Definition{Pattern: "pause music", Handler: say("again")},
		),
		Static("invalid",
			command.Definition{Pattern: "join {a}{b}", Handler: say("bad")},
		),
		{Name: "empty"},
		Static("screen",
			command.Definition{Pattern: "take screenshot", Handler: say("shot"), Safe: true},
		),
	}

	report := Load(reg, units...)

	assert.Equal(t, []string{"media", "screen"}, report.Loaded)
	assert.Equal(t, 3, report.Commands)
	require.Len(t, report.Failed, 5)

	failed := make(map[string]error)
	for _, f := range report.Failed {
		failed[f.Unit] = f.Err
	}
	assert.ErrorContains(t, failed["broken"], "missing dependency")
	assert.ErrorContains(t, failed["panicky"], "panic: init exploded")
	var dup *command.DuplicateTemplateError
	assert.ErrorAs(t, failed["duplicate"], &dup)
	var invalid *command.InvalidPatternError
	assert.ErrorAs(t, failed["invalid"], &invalid)
	assert.Error(t, failed["empty"])

	// the duplicate unit registered nothing, not even its first pattern
	assert.Equal(t, []string{"pause music", "volume up", "take screenshot"}, reg.Patterns())
	tmpl, ok := reg.Get("take screenshot")
	require.True(t, ok)
	assert.True(t, tmpl.Safe())
}

func TestReport_Err(t *testing.T) {
	reg := command.NewRegistry()

	report := Load(reg, Static("ok", command.Definition{Pattern: "say hello", Handler: say("hi")}))
	assert.NoError(t, report.Err())

	report = Load(reg, Static("again", command.Definition{Pattern: "say hello", Handler: say("hi")}))
	err := report.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unit "again"`)

	var dup *command.DuplicateTemplateError
	assert.ErrorAs(t, err, &dup)
}

func TestReport_Merge(t *testing.T) {
	var total Report
	total.Merge(Report{Loaded: []string{"a"}, Commands: 2})
	total.Merge(Report{Loaded: []string{"b"}, Failed: []Failure{{Unit: "c", Err: errors.New("x")}}, Commands: 1})

	assert.Equal(t, []string{"a", "b"}, total.Loaded)
	assert.Equal(t, 3, total.Commands)
	assert.Len(t, total.Failed, 1)
}
