// Copyright 2016 Apcera Inc. All rights reserved.

// Package launch starts the units of a finalized execution plan.
// Foreground units run to completion in plan order, background units are
// detached, and a pipe unit's output becomes the next unit's input. The
// plan is already validated; in particular the last unit never pipes.
package launch

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/apcera/logray"

	binit "github.com/apcera/ember/init"
	"github.com/apcera/ember/system"
)

// Run executes every unit of the plan and waits for all of them to
// finish. Per-unit tunables and the working directory are applied just
// before the unit starts.
func Run(plan *binit.Plan, sys system.Interface, log *logray.Logger) error {
	var wg sync.WaitGroup
	var carry io.Reader

	for _, unit := range plan.Units() {
		unit := unit

		stdin := io.Reader(os.Stdin)
		if carry != nil {
			stdin = carry
			carry = nil
		}
		stdout := io.Writer(os.Stdout)
		var pw *io.PipeWriter
		if unit.Mode == binit.RunPipe {
			var pr *io.PipeReader
			pr, pw = io.Pipe()
			carry = pr
			stdout = pw
		}

		for _, sc := range unit.Sysctls {
			if err := sys.WriteSysctl(sc.Key, sc.Value); err != nil {
				return fmt.Errorf("error writing sysctl key %q for %q: %v", sc.Key, unit.Name, err)
			}
		}
		if unit.Workdir != "" {
			if err := os.Chdir(unit.Workdir); err != nil {
				return fmt.Errorf("chdir %q for %q: %v", unit.Workdir, unit.Name, err)
			}
		}

		runUnit := func() {
			log.Infof("Starting %q", unit.Name)
			rc := unit.Main(unit.Argv, stdin, stdout)
			if pw != nil {
				pw.Close()
			}
			if rc != 0 {
				log.Warnf("%q exited with status %d", unit.Name, rc)
			}
		}

		switch unit.Mode {
		case binit.RunForeground:
			runUnit()
		case binit.RunBackground, binit.RunPipe:
			// a pipe producer must run alongside its consumer
			wg.Add(1)
			go func() {
				defer wg.Done()
				runUnit()
			}()
		}
	}

	wg.Wait()
	return nil
}
