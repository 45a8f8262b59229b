// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"fmt"

	"github.com/apcera/ember/jsontree"
	"github.com/apcera/ember/registry"
)

// RunMode is the execution discipline for one plan unit.
type RunMode int

const (
	// RunForeground blocks the boot sequence until the unit exits.
	RunForeground RunMode = iota

	// RunBackground detaches the unit.
	RunBackground

	// RunPipe feeds the unit's output into the next unit.
	RunPipe
)

// ExecUnit is one process to start: a resolved entry point, its argument
// vector, optional working directory, run mode, and tunables to apply at
// process start.
type ExecUnit struct {
	Name    string
	Main    registry.MainFunc
	Argv    []string
	Workdir string
	Mode    RunMode
	Sysctls []SysctlPair
}

// Plan is the ordered queue of units produced by interpretation. Units
// appear in document order; the zero-configuration fallback appends them
// in registration order.
type Plan struct {
	units []*ExecUnit
}

// Units returns the plan's units in execution order.
func (p *Plan) Units() []*ExecUnit {
	return p.units
}

// Len returns the number of units in the plan.
func (p *Plan) Len() int {
	return len(p.units)
}

// Append adds a unit to the end of the plan.
func (p *Plan) Append(u *ExecUnit) {
	p.units = append(p.units, u)
}

func (p *Plan) last() *ExecUnit {
	if len(p.units) == 0 {
		return nil
	}
	return p.units[len(p.units)-1]
}

// resolveMain maps an rc entry's bin name to a registered entry point.
// The name "*" is a compatibility alias for the first registered entry
// point, kept for launchers that predate multi-application images.
func (r *runner) resolveMain(name string) registry.MainFunc {
	if name == "*" {
		entries := r.registry.Entries()
		if len(entries) == 0 {
			return nil
		}
		return entries[0].Main
	}
	main, ok := r.registry.Lookup(name)
	if !ok {
		return nil
	}
	return main
}

func (r *runner) handleRC(v *jsontree.Value, loc string) error {
	if err := expect(jsontree.Array, v, "rc"); err != nil {
		return err
	}
	for _, e := range v.Members {
		if err := r.handleRCEntry(e); err != nil {
			return err
		}
	}
	return nil
}

// handleRCEntry validates one rc entry and appends its unit to the plan.
// Unlike table dispatch, unrecognized keys here are fatal: an rc entry is
// a closed schema.
func (r *runner) handleRCEntry(v *jsontree.Value) error {
	if err := expect(jsontree.Object, v, "rc entry"); err != nil {
		return err
	}

	var vBin, vArgv, vRunmode, vWorkdir, vSysctl *jsontree.Value
	for _, m := range v.Members {
		switch m.Name {
		case "bin":
			if err := expect(jsontree.String, m, "rc entry"); err != nil {
				return err
			}
			vBin = m
		case "argv":
			if err := expect(jsontree.Array, m, "rc entry"); err != nil {
				return err
			}
			vArgv = m
		case "runmode":
			if err := expect(jsontree.String, m, "rc entry"); err != nil {
				return err
			}
			vRunmode = m
		case "workdir":
			if err := expect(jsontree.String, m, "rc entry"); err != nil {
				return err
			}
			vWorkdir = m
		case "netbsd":
			if err := expect(jsontree.Object, m, "rc entry"); err != nil {
				return err
			}
			for _, n := range m.Members {
				if n.Name != "sysctl" {
					return fmt.Errorf("unexpected key %q in rc entry \"netbsd\"", n.Name)
				}
				if err := expect(jsontree.Object, n, "rc entry"); err != nil {
					return err
				}
				vSysctl = n
			}
		default:
			return fmt.Errorf("unexpected key %q in rc entry", m.Name)
		}
	}

	if vBin == nil {
		return fmt.Errorf("missing \"bin\" for rc entry")
	}
	main := r.resolveMain(vBin.Str)
	if main == nil {
		return fmt.Errorf("unknown \"bin\" %q in rc entry", vBin.Str)
	}

	var argv []string
	if vArgv != nil {
		for _, a := range vArgv.Members {
			if err := expect(jsontree.String, a, "rc entry \"argv\""); err != nil {
				return err
			}
			argv = append(argv, a.Str)
		}
	}
	if len(argv) == 0 {
		argv = []string{vBin.Str}
	}

	mode := RunForeground
	if vRunmode != nil {
		switch vRunmode.Str {
		case "":
			mode = RunForeground
		case "&":
			mode = RunBackground
		case "|":
			mode = RunPipe
		default:
			return fmt.Errorf("invalid runmode %q for bin %q", vRunmode.Str, vBin.Str)
		}
	}

	unit := &ExecUnit{
		Name: vBin.Str,
		Main: main,
		Argv: argv,
		Mode: mode,
	}
	if vWorkdir != nil {
		unit.Workdir = vWorkdir.Str
	}
	if vSysctl != nil {
		pairs, err := flattenSysctls(vSysctl, procSysctlPrefix, "rc entry \"sysctl\"")
		if err != nil {
			return err
		}
		unit.Sysctls = pairs
	}

	r.plan.Append(unit)
	return nil
}

// fallbackPlan populates the plan with every registered entry point, run
// in the foreground with its own name as the sole argument. This is the
// zero-configuration fallback: the system always has something to
// execute.
func (r *runner) fallbackPlan() error {
	for _, e := range r.registry.Entries() {
		r.plan.Append(&ExecUnit{
			Name: e.Name,
			Main: e.Main,
			Argv: []string{e.Name},
			Mode: RunForeground,
		})
	}
	if r.plan.Len() == 0 {
		return fmt.Errorf("internal error: no registered entry points")
	}
	return nil
}
