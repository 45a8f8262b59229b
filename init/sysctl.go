// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"fmt"

	"github.com/apcera/ember/jsontree"
)

// SysctlPair is one dotted tunable key and its canonicalized string
// value. Key uniqueness is not enforced here; duplicates are all written
// and the last write wins at the tunable layer.
type SysctlPair struct {
	Key   string
	Value string
}

// flattenSysctls turns an object of scalar members into tunable pairs.
// Members must be boolean, string, or numeric; booleans canonicalize to
// "1" and "0". When prefix is non-empty each key becomes
// "prefix.member". An empty object yields an empty slice.
func flattenSysctls(v *jsontree.Value, prefix, loc string) ([]SysctlPair, error) {
	var pairs []SysctlPair
	for _, m := range v.Members {
		var value string
		switch m.Kind {
		case jsontree.Bool:
			if m.Bool {
				value = "1"
			} else {
				value = "0"
			}
		case jsontree.String, jsontree.Number:
			value = m.Str
		default:
			return nil, fmt.Errorf("%s: invalid type %s for sysctl key %q", loc, m.Kind, m.Name)
		}

		key := m.Name
		if prefix != "" {
			key = prefix + "." + m.Name
		}
		pairs = append(pairs, SysctlPair{Key: key, Value: value})
	}
	return pairs, nil
}

func (r *runner) handleSysctl(v *jsontree.Value, loc string) error {
	if err := expect(jsontree.Object, v, "netbsd.sysctl"); err != nil {
		return err
	}
	pairs, err := flattenSysctls(v, "", "netbsd.sysctl")
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := r.sys.WriteSysctl(p.Key, p.Value); err != nil {
			return fmt.Errorf("error writing sysctl key %q: %v", p.Key, err)
		}
	}
	return nil
}

var netbsdHandlers = []handlerEntry{
	{"sysctl", (*runner).handleSysctl},
}

func (r *runner) handleNetBSD(v *jsontree.Value, loc string) error {
	return r.dispatch(v, netbsdHandlers, "netbsd")
}
