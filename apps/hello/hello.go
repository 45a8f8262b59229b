// Copyright 2016 Apcera Inc. All rights reserved.

// Package hello is a trivial embeddable application, registered under the
// name "hello". Images bundle real applications the same way: a package
// that registers its entry point from init and is imported for side
// effect by the image's main.
package hello

import (
	"fmt"
	"io"
	"strings"

	"github.com/apcera/ember/registry"
)

func init() {
	registry.Register("hello", run)
}

func run(argv []string, stdin io.Reader, stdout io.Writer) int {
	if len(argv) > 1 {
		fmt.Fprintf(stdout, "hello, %s\n", strings.Join(argv[1:], " "))
	} else {
		fmt.Fprintln(stdout, "hello from ember")
	}
	return 0
}
