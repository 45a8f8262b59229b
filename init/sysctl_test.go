// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"testing"

	. "github.com/apcera/util/testtool"

	"github.com/apcera/ember/jsontree"
)

func TestFlattenSysctls(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	doc, err := jsontree.Parse(`{"ddb.onpanic": false, "kern.autonice": true, "kern.host": "box", "kern.maxproc": 512}`)
	TestExpectSuccess(t, err)

	pairs, err := flattenSysctls(doc, "", "test")
	TestExpectSuccess(t, err)
	TestEqual(t, pairs, []SysctlPair{
		{"ddb.onpanic", "0"},
		{"kern.autonice", "1"},
		{"kern.host", "box"},
		{"kern.maxproc", "512"},
	})
}

func TestFlattenSysctlsPrefix(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	doc, err := jsontree.Parse(`{"rlimit.memlock": "65536"}`)
	TestExpectSuccess(t, err)

	pairs, err := flattenSysctls(doc, "proc.curproc", "test")
	TestExpectSuccess(t, err)
	TestEqual(t, pairs, []SysctlPair{{"proc.curproc.rlimit.memlock", "65536"}})
}

func TestFlattenSysctlsEmpty(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	doc, err := jsontree.Parse(`{}`)
	TestExpectSuccess(t, err)

	pairs, err := flattenSysctls(doc, "", "test")
	TestExpectSuccess(t, err)
	TestEqual(t, len(pairs), 0)
}

func TestFlattenSysctlsBadType(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	doc, err := jsontree.Parse(`{"kern.bad": ["nested"]}`)
	TestExpectSuccess(t, err)

	_, err = flattenSysctls(doc, "", "test")
	TestExpectError(t, err)

	doc, err = jsontree.Parse(`{"kern.bad": {"nested": true}}`)
	TestExpectSuccess(t, err)

	_, err = flattenSysctls(doc, "", "test")
	TestExpectError(t, err)
}

func TestHandleSysctlWrites(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, sys := newTestRunner()

	doc, err := jsontree.Parse(`{"netbsd": {"sysctl": {"ddb.onpanic": false, "vm.swapout": true}}}`)
	TestExpectSuccess(t, err)
	TestExpectSuccess(t, r.dispatch(doc, rootHandlers, "config"))
	TestEqual(t, sys.calls, []string{
		"sysctl ddb.onpanic=0",
		"sysctl vm.swapout=1",
	})
}

func TestHandleSysctlWriteFailureFatal(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, sys := newTestRunner()
	sys.sysctlErr = errFailed

	doc, err := jsontree.Parse(`{"netbsd": {"sysctl": {"ddb.onpanic": false}}}`)
	TestExpectSuccess(t, err)
	TestExpectError(t, r.dispatch(doc, rootHandlers, "config"))
}

func TestHandleSysctlUnknownNetbsdKeyIgnored(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, sys := newTestRunner()

	doc, err := jsontree.Parse(`{"netbsd": {"mystery": true, "sysctl": {"a.b": "1"}}}`)
	TestExpectSuccess(t, err)
	TestExpectSuccess(t, r.dispatch(doc, rootHandlers, "config"))
	TestEqual(t, sys.calls, []string{"sysctl a.b=1"})
}
