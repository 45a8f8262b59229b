// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"fmt"

	"github.com/apcera/ember/jsontree"
)

func (r *runner) handleEnv(v *jsontree.Value, loc string) error {
	if err := expect(jsontree.Object, v, "env"); err != nil {
		return err
	}
	for _, m := range v.Members {
		if err := expect(jsontree.String, m, "env"); err != nil {
			return err
		}
		if err := r.sys.Setenv(m.Name, m.Str); err != nil {
			return fmt.Errorf("setenv %q: %v", m.Name, err)
		}
	}
	return nil
}
