// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"os"
	"testing"

	. "github.com/apcera/util/testtool"

	"github.com/apcera/ember/jsontree"
)

func parseBlk(t *testing.T, text string) *jsontree.Value {
	doc, err := jsontree.Parse(text)
	TestExpectSuccess(t, err)
	return doc
}

func TestBlkPassthrough(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, sys := newTestRunner()
	doc := parseBlk(t, `{"data": {"type": "etfs", "path": "/guestfs/data.img"}}`)
	TestExpectSuccess(t, r.handleBlks(doc, "config"))
	TestEqual(t, sys.calls, []string{"register data /guestfs/data.img"})
}

func TestBlkPassthroughHardFailure(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, sys := newTestRunner()
	sys.registerErr = errFailed
	doc := parseBlk(t, `{"data": {"type": "etfs", "path": "/guestfs/data.img"}}`)
	TestExpectError(t, r.handleBlks(doc, "config"))
}

func TestBlkPassthroughSoftFailure(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, sys := newTestRunner()
	sys.registerErr = errFailed
	// the probing variant tolerates registration failure
	TestExpectSuccess(t, r.registerBlockDevice("rootfs", "/dev/xvda1", false))
	TestEqual(t, len(sys.calls), 0)
}

func TestBlkLoopExistingNode(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, sys := newTestRunner()
	doc := parseBlk(t, `{"loop0": {"type": "vnd", "path": "/data/fs.img"}}`)
	TestExpectSuccess(t, r.handleBlks(doc, "config"))
	TestEqual(t, sys.calls, []string{"attach /dev/loop0 /data/fs.img"})
}

func TestBlkLoopCreatesMissingNode(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, sys := newTestRunner()
	sys.attachErrOnce = map[string]error{"/dev/loop3": os.ErrNotExist}
	doc := parseBlk(t, `{"loop3": {"type": "vnd", "path": "/data/fs.img"}}`)
	TestExpectSuccess(t, r.handleBlks(doc, "config"))
	TestEqual(t, sys.calls, []string{
		"major /dev/loop0",
		"mknod /dev/loop3 7:3",
		"attach /dev/loop3 /data/fs.img",
	})
}

func TestBlkLoopBindFailureFatal(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, sys := newTestRunner()
	sys.attachErrOnce = map[string]error{"/dev/loop1": errFailed}
	doc := parseBlk(t, `{"loop1": {"type": "vnd", "path": "/data/fs.img"}}`)
	TestExpectError(t, r.handleBlks(doc, "config"))
}

func TestBlkLoopBadName(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, _ := newTestRunner()
	doc := parseBlk(t, `{"cdrom": {"type": "vnd", "path": "/data/fs.img"}}`)
	TestExpectError(t, r.handleBlks(doc, "config"))
}

func TestBlkUnknownType(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, _ := newTestRunner()
	doc := parseBlk(t, `{"data": {"type": "nbd", "path": "/data/fs.img"}}`)
	TestExpectError(t, r.handleBlks(doc, "config"))
}

func TestBlkMissingFields(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, _ := newTestRunner()
	doc := parseBlk(t, `{"data": {"type": "etfs"}}`)
	TestExpectError(t, r.handleBlks(doc, "config"))

	r, _ = newTestRunner()
	doc = parseBlk(t, `{"data": {"path": "/x"}}`)
	TestExpectError(t, r.handleBlks(doc, "config"))
}

func TestBlkUnexpectedKeyFatal(t *testing.T) {
	tt := StartTest(t)
	defer tt.FinishTest()

	r, _ := newTestRunner()
	doc := parseBlk(t, `{"data": {"type": "etfs", "path": "/x", "mode": "rw"}}`)
	TestExpectError(t, r.handleBlks(doc, "config"))
}
