// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"fmt"

	"github.com/apcera/ember/jsontree"
)

// handlerFunc processes one object member. loc names the enclosing
// configuration context for error attribution.
type handlerFunc func(r *runner, v *jsontree.Value, loc string) error

// handlerEntry binds a configuration key to its handler. The position of
// an entry in a table encodes priority, not discovery order.
type handlerEntry struct {
	key string
	fn  handlerFunc
}

// expect fails when v is not of kind k.
func expect(k jsontree.Kind, v *jsontree.Value, loc string) error {
	if v.Kind != k {
		return fmt.Errorf("%s: expected %s, got %s", loc, k, v.Kind)
	}
	return nil
}

// dispatch runs the handlers in table against the members of the object
// v, in table order. JSON objects are unordered by definition, but
// configuration must be applied in a deterministic order: devices before
// mounts, mounts before processes. Walking the table rather than the
// document encodes that ordering in one place.
//
// Pass 1 warns about members no table entry matches; unknown keys never
// abort interpretation. Pass 2 invokes each table entry's handler on
// every member whose name matches, so duplicate keys in the document are
// all visited, in document order within a key.
func (r *runner) dispatch(v *jsontree.Value, table []handlerEntry, loc string) error {
	if err := expect(jsontree.Object, v, loc); err != nil {
		return err
	}

	for _, m := range v.Members {
		known := false
		for _, h := range table {
			if h.key == m.Name {
				known = true
				break
			}
		}
		if !known {
			r.log.Warnf("%s: no match for key %q, ignored", loc, m.Name)
		}
	}

	for _, h := range table {
		for _, m := range v.Members {
			if m.Name != h.key {
				continue
			}
			if err := h.fn(r, m, loc); err != nil {
				return err
			}
		}
	}
	return nil
}
