// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"fmt"
	"os"

	"github.com/apcera/util/proc"
)

// createSystemMounts brings up the base pseudo-filesystems. Running as
// PID 1 there is no fstab, so they must be mounted here, before the boot
// command line (which lives on /proc) can even be read. Order matters;
// entries are mounted top to bottom.
func (r *runner) createSystemMounts() error {
	systemMounts := [][]string{
		{"/dev", "devtmpfs", "devtmpfs"},
		{"/proc", "none", "proc"},
		{"/sys", "none", "sysfs"},
		{"/tmp", "none", "tmpfs"},
	}

	// Check whether /proc/mounts exists to find mounts that are already
	// in place. This keeps re-runs under an already booted system from
	// mounting twice.
	var existingMounts map[string]*proc.MountPoint
	if _, err := os.Lstat(proc.MountProcFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to check if %q existed: %v", proc.MountProcFile, err)
	} else if os.IsNotExist(err) {
		// freshly booted, /proc isn't mounted yet
		existingMounts = make(map[string]*proc.MountPoint)
	} else {
		existingMounts, err = proc.MountPoints()
		if err != nil {
			return fmt.Errorf("failed to read existing mount points: %v", err)
		}
	}

	for _, mount := range systemMounts {
		location, source, fstype := mount[0], mount[1], mount[2]

		if _, exists := existingMounts[location]; exists {
			r.log.Tracef("- skipping %q, already mounted", location)
			continue
		}

		r.log.Tracef("- mounting %q (type %q) to %q", source, fstype, location)
		if err := os.MkdirAll(location, 0755); err != nil {
			return fmt.Errorf("failed to create %q: %v", location, err)
		}
		if err := r.sys.Mount(source, location, fstype, false); err != nil {
			return fmt.Errorf("failed to mount %q: %v", location, err)
		}
	}
	return nil
}
