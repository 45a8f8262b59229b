// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apcera/ember/jsontree"
)

// rootHandlers is the top-level handler table. Its order is the boot
// bring-up order: kernel tunables first, then the process list,
// environment, block devices, mounts, and network, regardless of the
// document's own key order.
var rootHandlers = []handlerEntry{
	{"netbsd", (*runner).handleNetBSD},
	{"rc", (*runner).handleRC},
	{"env", (*runner).handleEnv},
	{"blk", (*runner).handleBlks},
	{"mount", (*runner).handleMounts},
	{"net", (*runner).handleNet},
}

func (r *runner) readCmdline() error {
	if r.cmdline != "" {
		return nil
	}
	b, err := os.ReadFile(r.cmdlinePath)
	if err != nil {
		return fmt.Errorf("failed to read boot command line: %v", err)
	}
	r.cmdline = string(b)
	return nil
}

// locatePayload finds the configuration payload. A root filesystem
// marker on the command line replaces the command line with the contents
// of the referenced file; either way the payload is the text from the
// first '{' onward. No '{' anywhere means no configuration, which is not
// an error.
func (r *runner) locatePayload() error {
	if idx := strings.Index(r.cmdline, rootCfgMarker); idx != -1 {
		path := r.cmdline[idx+len(rootCfgMarker):]
		if fields := strings.Fields(path); len(fields) > 0 {
			path = fields[0]
		}
		replaced, err := r.payloadFromRoot(path)
		if err != nil {
			return err
		}
		r.cmdline = replaced
	}

	i := strings.IndexByte(r.cmdline, '{')
	if i < 0 {
		r.log.Warn("could not find start of configuration, booting unconfigured")
		return nil
	}
	r.payload = r.cmdline[i:]
	return nil
}

// payloadFromRoot mounts a root filesystem and reads the configuration
// file from it. It probes the static boot device candidates first and
// falls back to registering the cloud passthrough device. The file size
// is capped; a configuration has no business being larger.
func (r *runner) payloadFromRoot(cfgPath string) (string, error) {
	if err := os.MkdirAll(r.rootfsDir, 0777); err != nil {
		return "", fmt.Errorf("mkdir %q failed: %v", r.rootfsDir, err)
	}

	mounted := false
	for _, dev := range bootDeviceCandidates {
		if err := r.mountBlk(dev, r.rootfsDir, nil); err == nil {
			mounted = true
			break
		}
	}
	if !mounted {
		// one more try: the cloud platform's passthrough device
		if err := r.registerBlockDevice(cloudBootDeviceName, cloudBootDevicePath, false); err != nil {
			return "", err
		}
		dev := filepath.Join(r.devDir, cloudBootDeviceName)
		if err := r.mountBlk(dev, r.rootfsDir, nil); err != nil {
			return "", fmt.Errorf("failed to mount %s: %v", r.rootfsDir, err)
		}
	}

	full := filepath.Join(r.rootfsDir, strings.TrimLeft(cfgPath, "/"))
	fi, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("stat %q: %v", full, err)
	}
	if fi.Size() > cfgMaxSize {
		return "", fmt.Errorf("configuration file %q too large (%d bytes, max %d)", full, fi.Size(), cfgMaxSize)
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %q: %v", full, err)
	}
	return string(b), nil
}

func (r *runner) parsePayload() error {
	if r.payload == "" {
		return nil
	}
	doc, err := jsontree.Parse(r.payload)
	if err != nil {
		return err
	}
	r.doc = doc
	return nil
}

// applyHandlers drives the root handler table over the document, then
// drops the document; it is not consulted again, error or not.
func (r *runner) applyHandlers() error {
	if r.doc == nil {
		return nil
	}
	err := r.dispatch(r.doc, rootHandlers, "config")
	r.doc = nil
	return err
}

// finalizePlan synthesizes the zero-configuration fallback when nothing
// produced a process list, then checks plan consistency: the last unit
// cannot pipe its output into nothing.
func (r *runner) finalizePlan() error {
	if r.plan.Len() == 0 {
		if err := r.fallbackPlan(); err != nil {
			return err
		}
	}
	if r.plan.last().Mode == RunPipe {
		return fmt.Errorf("last rc entry may not output to pipe")
	}
	return nil
}
