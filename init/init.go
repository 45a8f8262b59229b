// Copyright 2016 Apcera Inc. All rights reserved.

// Package init interprets the EmberOS boot configuration. It locates the
// JSON payload on the boot command line (or on a root filesystem), walks
// it with a fixed-priority handler table, applies kernel tunables, block
// devices, mounts, environment, and network configuration, and produces
// the execution plan handed to the launcher.
package init

import (
	"github.com/apcera/logray"

	"github.com/apcera/ember/jsontree"
	"github.com/apcera/ember/registry"
	"github.com/apcera/ember/system"
)

// runner drives one boot configuration pass. Interpretation is strictly
// sequential and forward-only; a runner is used once and discarded.
type runner struct {
	registry *registry.Registry
	sys      system.Interface
	log      *logray.Logger
	plan     *Plan

	cmdline string
	payload string
	doc     *jsontree.Value

	// overridable paths, fixed on a real boot
	cmdlinePath    string
	devDir         string
	rootfsDir      string
	resolvConfPath string
}

// setupFunctions are the boot configuration steps, run in order. The
// first error aborts the pass; partially applied configuration is left in
// place, since a misconfigured boot must stop rather than continue in an
// undefined state.
var setupFunctions = []func(*runner) error{
	(*runner).createSystemMounts,
	(*runner).readCmdline,
	(*runner).locatePayload,
	(*runner).parsePayload,
	(*runner).applyHandlers,
	(*runner).finalizePlan,
}

func newRunner(reg *registry.Registry, sys system.Interface) *runner {
	return &runner{
		registry:       reg,
		sys:            sys,
		log:            logray.New(),
		plan:           &Plan{},
		cmdlinePath:    bootCmdlineFile,
		devDir:         devDir,
		rootfsDir:      rootfsDir,
		resolvConfPath: resolvConfFile,
	}
}

// Run interprets the boot configuration and returns the finalized
// execution plan. reg supplies the statically linked entry points; sys
// supplies the kernel primitives.
func Run(reg *registry.Registry, sys system.Interface) (*Plan, error) {
	r := newRunner(reg, sys)
	r.log.Info("Interpreting boot configuration")

	for _, f := range setupFunctions {
		if err := f(r); err != nil {
			r.log.Errorf("ERROR: %v", err)
			return nil, err
		}
	}
	return r.plan, nil
}
