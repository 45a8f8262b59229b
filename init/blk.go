// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/apcera/ember/jsontree"
)

func (r *runner) handleBlks(v *jsontree.Value, loc string) error {
	if err := expect(jsontree.Object, v, "blk"); err != nil {
		return err
	}
	for _, m := range v.Members {
		if err := r.handleBlk(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) handleBlk(v *jsontree.Value) error {
	dev := v.Name
	if err := expect(jsontree.Object, v, "blk"); err != nil {
		return err
	}

	var btype, path string
	for _, m := range v.Members {
		switch m.Name {
		case "type":
			if err := expect(jsontree.String, m, "blk"); err != nil {
				return err
			}
			btype = m.Str
		case "path":
			if err := expect(jsontree.String, m, "blk"); err != nil {
				return err
			}
			path = m.Str
		default:
			return fmt.Errorf("unexpected key %q in %q", m.Name, dev)
		}
	}

	if btype == "" || path == "" {
		return fmt.Errorf("missing \"path\"/\"type\" in %q", dev)
	}

	switch btype {
	case "etfs":
		return r.registerBlockDevice(dev, path, true)
	case "vnd":
		return r.configureLoop(dev, path)
	default:
		return fmt.Errorf("unsupported type %q in %q", btype, dev)
	}
}

// registerBlockDevice registers a host-file passthrough device. When hard
// is false a registration failure is tolerated; root filesystem discovery
// uses that to probe for a device that may not exist.
func (r *runner) registerBlockDevice(dev, path string, hard bool) error {
	if err := r.sys.RegisterBlockDevice(dev, path); err != nil && hard {
		return fmt.Errorf("block device registration for %q failed: %v", path, err)
	}
	return nil
}

func (r *runner) loopDevPath(unit int) string {
	return filepath.Join(r.devDir, fmt.Sprintf("loop%d", unit))
}

// configureLoop binds path read-only as the backing store of a numbered
// loop device. If the device node does not exist yet it is created using
// the major number probed from unit 0, which is assumed to exist, and the
// bind is retried once.
func (r *runner) configureLoop(dev, path string) error {
	var unit int
	if _, err := fmt.Sscanf(dev, "loop%d", &unit); err != nil {
		return fmt.Errorf("invalid loop device name %q", dev)
	}
	devPath := r.loopDevPath(unit)

	err := r.sys.AttachLoop(devPath, path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		major, merr := r.sys.BlockMajor(r.loopDevPath(0))
		if merr != nil {
			return fmt.Errorf("probing loop device major failed: %v", merr)
		}
		if err := r.sys.Mknod(devPath, major, uint32(unit)); err != nil {
			return fmt.Errorf("mknod %s: %v", devPath, err)
		}
		err = r.sys.AttachLoop(devPath, path)
	}
	if err != nil {
		return fmt.Errorf("binding %q to %s failed: %v", path, devPath, err)
	}
	return nil
}
