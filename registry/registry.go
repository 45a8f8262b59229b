// Copyright 2016 Apcera Inc. All rights reserved.

// Package registry holds the static table of embeddable application entry
// points baked into an Ember image. Application packages register their
// main routine from an init function and the image's main imports them for
// side effect, so the table is fully populated before the interpreter
// runs. Registration order is preserved; it is the order used when the
// interpreter synthesizes the zero-configuration execution plan.
package registry

import (
	"io"
)

// MainFunc is the entry point signature for an embedded application. The
// launcher supplies argv and the unit's standard streams; the return value
// is the process exit code.
type MainFunc func(argv []string, stdin io.Reader, stdout io.Writer) int

// Entry is one registered entry point.
type Entry struct {
	Name string
	Main MainFunc
}

// Registry is an ordered, append-only entry point table.
type Registry struct {
	entries []Entry
}

// Default is the table populated by application package init functions.
var Default = New()

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register appends an entry point to the table.
func (r *Registry) Register(name string, main MainFunc) {
	r.entries = append(r.entries, Entry{Name: name, Main: main})
}

// Lookup returns the main routine registered under name.
func (r *Registry) Lookup(name string) (MainFunc, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Main, true
		}
	}
	return nil, false
}

// Entries returns the registered entry points in registration order.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Len returns the number of registered entry points.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Register adds an entry point to the default table.
func Register(name string, main MainFunc) {
	Default.Register(name, main)
}
