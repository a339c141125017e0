// Package macro loads user defined commands from a YAML manifest.
//
// A macro binds a pattern to a list of steps. Each step is itself command
// text, with the macro's placeholders substituted, and is run through the
// dispatcher like anything the user typed:
//
//	macros:
//	  - pattern: "back up {file} as {copy}"
//	    description: Copy a file and show the directory
//	    run:
//	      - "copy {file} to {copy}"
//	      - "list files in ."
package macro

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/loader"
)

// MaxDepth is how deeply macros may invoke other macros.
const MaxDepth = 8

// ErrTooDeep is returned when macro expansion nests past MaxDepth.
var ErrTooDeep = fmt.Errorf("macro nesting deeper than %d", MaxDepth)

// Macro is one manifest entry.
type Macro struct {
	Pattern     string   `yaml:"pattern"`
	Run         []string `yaml:"run"`
	Safe        bool     `yaml:"safe"`
	Description string   `yaml:"description"`
}

// Manifest is the top-level document.
type Manifest struct {
	Macros []Macro `yaml:"macros"`
}

// Executor runs command text. *command.Dispatcher satisfies it.
type Executor interface {
	Execute(ctx context.Context, input string) command.Result
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, input string) command.Result

func (f ExecutorFunc) Execute(ctx context.Context, input string) command.Result {
	return f(ctx, input)
}

// Parse decodes a manifest, rejecting unknown fields.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &m, nil
}

// ReadFile reads and parses the manifest at path.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading macro manifest: %w", err)
	}
	return Parse(data)
}

// Definitions validates every macro and turns it into a command definition
// whose handler runs the steps through exec.
func (m *Manifest) Definitions(exec Executor) ([]command.Definition, error) {
	defs := make([]command.Definition, 0, len(m.Macros))
	for i, mac := range m.Macros {
		def, err := mac.definition(exec)
		if err != nil {
			return nil, fmt.Errorf("macro %d (%q): %w", i+1, mac.Pattern, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// FileUnit returns a unit reading its macros from path when loaded.
func FileUnit(path string, exec Executor) loader.Unit {
	return loader.Unit{
		Name: "macros",
		Commands: func() ([]command.Definition, error) {
			m, err := ReadFile(path)
			if err != nil {
				return nil, err
			}
			return m.Definitions(exec)
		},
	}
}

func (mac Macro) definition(exec Executor) (command.Definition, error) {
	noop := func(context.Context, command.Args) (string, error) { return "", nil }

	self, err := command.Compile(mac.Pattern, noop)
	if err != nil {
		return command.Definition{}, err
	}
	if len(mac.Run) == 0 {
		return command.Definition{}, errors.New("no steps to run")
	}

	declared := make(map[string]bool)
	for _, name := range self.Placeholders() {
		declared[name] = true
	}

	steps := make([]*command.Template, len(mac.Run))
	for i, text := range mac.Run {
		step, err := command.Compile(text, noop)
		if err != nil {
			return command.Definition{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		for _, name := range step.Placeholders() {
			if !declared[name] {
				return command.Definition{}, fmt.Errorf("step %d uses {%s}, which %q does not declare", i+1, name, mac.Pattern)
			}
		}
		steps[i] = step
	}

	description := mac.Description
	if description == "" {
		description = "Macro: " + strings.Join(mac.Run, "; ")
	}

	return command.Definition{
		Pattern:     mac.Pattern,
		Safe:        mac.Safe,
		Description: description,
		Handler:     runner(steps, exec),
	}, nil
}

type depthKey struct{}

func depth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

// runner executes steps in order and stops at the first one that does not
// succeed.
func runner(steps []*command.Template, exec Executor) command.Handler {
	return func(ctx context.Context, args command.Args) (string, error) {
		d := depth(ctx) + 1
		if d > MaxDepth {
			return "", ErrTooDeep
		}
		ctx = context.WithValue(ctx, depthKey{}, d)

		outputs := make([]string, 0, len(steps))
		for i, step := range steps {
			text, err := step.Format(args)
			if err != nil {
				return "", err
			}
			res := exec.Execute(ctx, text)
			if !res.OK() {
				if errors.Is(res.Err, ErrTooDeep) {
					return "", ErrTooDeep
				}
				return "", fmt.Errorf("step %d (%q): %s", i+1, text, res.String())
			}
			outputs = append(outputs, res.Output)
		}
		return strings.Join(outputs, "\n"), nil
	}
}
