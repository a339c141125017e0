// Package loader registers extension units into a command registry.
//
// A unit is a named group of command definitions. Units are listed
// explicitly by the caller; a unit that fails to build its definitions,
// panics, or collides with an existing pattern is recorded in the Report
// and skipped, and loading carries on with the next one.
package loader

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/caelumsys/caelum/command"
)

// Unit is a named source of command definitions.
type Unit struct {
	Name     string
	Commands func() ([]command.Definition, error)
}

// Static returns a unit that always yields defs.
func Static(name string, defs ...command.Definition) Unit {
	return Unit{
		Name:     name,
		Commands: func() ([]command.Definition, error) { return defs, nil },
	}
}

// Failure records why a unit was not loaded.
type Failure struct {
	Unit string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("unit %q: %v", f.Unit, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report lists the outcome of a Load call.
type Report struct {
	Loaded []string
	Failed []Failure
	// Commands is the number of templates registered across loaded units.
	Commands int
}

// Err joins every failure, or returns nil if all units loaded.
func (r Report) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Merge appends other to r.
func (r *Report) Merge(other Report) {
	r.Loaded = append(r.Loaded, other.Loaded...)
	r.Failed = append(r.Failed, other.Failed...)
	r.Commands += other.Commands
}

// Load registers each unit's definitions as one atomic batch. It never
// stops early: a failing unit leaves no trace in reg and does not affect
// the units after it.
func Load(reg *command.Registry, units ...Unit) Report {
	var report Report
	for _, u := range units {
		n, err := loadUnit(reg, u)
		if err != nil {
			log.Warn().Err(err).Str("unit", u.Name).Msg("failed to load unit")
			report.Failed = append(report.Failed, Failure{Unit: u.Name, Err: err})
			continue
		}
		log.Info().Str("unit", u.Name).Int("commands", n).Msg("loaded unit")
		report.Loaded = append(report.Loaded, u.Name)
		report.Commands += n
	}
	return report
}

func loadUnit(reg *command.Registry, u Unit) (n int, err error) {
	defer func() {
		if p := recover(); p != nil {
			n, err = 0, fmt.Errorf("panic: %v", p)
		}
	}()

	if u.Commands == nil {
		return 0, errors.New("unit has no commands")
	}
	defs, err := u.Commands()
	if err != nil {
		return 0, fmt.Errorf("build commands: %w", err)
	}
	if err := reg.AddAll(defs); err != nil {
		return 0, err
	}
	return len(defs), nil
}
