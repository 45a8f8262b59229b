// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/apcera/ember/jsontree"
)

// blockFormats are the filesystem formats tried, in order, for a
// block-backed mount. First successful mount wins. The table is the
// extension point for supporting further root filesystem formats.
var blockFormats = []struct {
	fstype   string
	readonly bool
}{
	{"ext4", false},
	{"ext2", false},
	{"iso9660", true},
}

// mounters dispatch a mount entry's source tag. Exhausting the table is a
// configuration error.
var mounters = []struct {
	source string
	fn     func(*runner, string, string, *jsontree.Value) error
}{
	{"blk", (*runner).mountBlk},
	{"kernfs", (*runner).mountKernfs},
	{"tmpfs", (*runner).mountTmpfs},
}

// mountBlk tries each supported block filesystem format against the
// device until one mounts.
func (r *runner) mountBlk(dev, mp string, options *jsontree.Value) error {
	if dev == "" {
		return fmt.Errorf("no backing device")
	}
	for _, f := range blockFormats {
		if err := r.sys.Mount(dev, mp, f.fstype, f.readonly); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no supported filesystem format found")
}

func (r *runner) mountKernfs(dev, mp string, options *jsontree.Value) error {
	return r.sys.Mount("none", mp, "proc", false)
}

func (r *runner) mountTmpfs(dev, mp string, options *jsontree.Value) error {
	optSize := ""
	if options != nil {
		if err := expect(jsontree.Object, options, mp+".options"); err != nil {
			return err
		}
		for _, m := range options.Members {
			if m.Name != "size" {
				return fmt.Errorf("unexpected key %q in %q", m.Name, mp+".options")
			}
			if err := expect(jsontree.String, m, mp+".options"); err != nil {
				return err
			}
			optSize = m.Str
		}
	}
	if optSize == "" {
		// TODO: a default proportional to core would be better, but
		// core size is not known here.
		optSize = "1M"
	}
	size, err := dehumanize(optSize)
	if err != nil {
		return fmt.Errorf("bad size %q for %s", optSize, mp)
	}
	return r.sys.MountTmpfs(mp, size)
}

// dehumanize parses a size string with an optional binary suffix, so
// "16M" is 16 MiB. Bare numbers are bytes.
func dehumanize(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	shift := uint(0)
	num := s
	switch s[len(s)-1] {
	case 'b', 'B':
		num = s[:len(s)-1]
	case 'k', 'K':
		shift, num = 10, s[:len(s)-1]
	case 'm', 'M':
		shift, num = 20, s[:len(s)-1]
	case 'g', 'G':
		shift, num = 30, s[:len(s)-1]
	case 't', 'T':
		shift, num = 40, s[:len(s)-1]
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if shift > 0 && n > math.MaxInt64>>shift {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return n << shift, nil
}

func (r *runner) handleMounts(v *jsontree.Value, loc string) error {
	if err := expect(jsontree.Object, v, "mount"); err != nil {
		return err
	}
	for _, m := range v.Members {
		if err := r.handleMount(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) handleMount(v *jsontree.Value) error {
	mp := v.Name
	if err := expect(jsontree.Object, v, "mount"); err != nil {
		return err
	}

	var source, path string
	var options *jsontree.Value
	for _, m := range v.Members {
		switch m.Name {
		case "source":
			if err := expect(jsontree.String, m, "mount"); err != nil {
				return err
			}
			source = m.Str
		case "path":
			if err := expect(jsontree.String, m, "mount"); err != nil {
				return err
			}
			path = m.Str
		case "options":
			if err := expect(jsontree.Object, m, "mount"); err != nil {
				return err
			}
			options = m
		default:
			return fmt.Errorf("unexpected key %q in %q", m.Name, mp)
		}
	}

	if source == "" {
		return fmt.Errorf("missing \"source\" in %q", mp)
	}

	// pre-existing directories are not an error
	if err := os.MkdirAll(mp, 0755); err != nil {
		return fmt.Errorf("mkdir %q failed: %v", mp, err)
	}

	for _, m := range mounters {
		if m.source != source {
			continue
		}
		if err := m.fn(r, path, mp, options); err != nil {
			display := path
			if display == "" {
				display = "(none)"
			}
			return fmt.Errorf("mount %q on %q type %q failed: %v", display, mp, source, err)
		}
		return nil
	}
	return fmt.Errorf("unknown source %q in %q", source, mp)
}
