// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"errors"
	"fmt"
	"io"

	"github.com/apcera/ember/registry"
)

var errFailed = errors.New("primitive failed")

// sysRecorder implements system.Interface and records every primitive
// call as a readable string, so tests can assert on both the calls made
// and their order. Error hooks simulate primitive failures.
type sysRecorder struct {
	calls []string

	// mountErr, when set, decides whether a Mount attempt fails.
	mountErr func(source, target, fstype string) error

	// attachErrOnce returns the mapped error for the first AttachLoop
	// on that device path, then succeeds.
	attachErrOnce map[string]error

	registerErr error
	majorErr    error
	sysctlErr   error
}

func (s *sysRecorder) record(format string, args ...interface{}) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *sysRecorder) InterfaceCreate(name string) error {
	s.record("ifcreate %s", name)
	return nil
}

func (s *sysRecorder) DHCPv4(ifname string) error {
	s.record("dhcp4 %s", ifname)
	return nil
}

func (s *sysRecorder) AddrIPv4(ifname, address string, prefixlen int) error {
	s.record("addr4 %s %s/%d", ifname, address, prefixlen)
	return nil
}

func (s *sysRecorder) AddrIPv6(ifname, address string, prefixlen int) error {
	s.record("addr6 %s %s/%d", ifname, address, prefixlen)
	return nil
}

func (s *sysRecorder) AutoIPv6(ifname string) error {
	s.record("auto6 %s", ifname)
	return nil
}

func (s *sysRecorder) GatewayIPv4(address string) error {
	s.record("gw4 %s", address)
	return nil
}

func (s *sysRecorder) GatewayIPv6(address string) error {
	s.record("gw6 %s", address)
	return nil
}

func (s *sysRecorder) RegisterBlockDevice(name, path string) error {
	if s.registerErr != nil {
		return s.registerErr
	}
	s.record("register %s %s", name, path)
	return nil
}

func (s *sysRecorder) AttachLoop(devPath, path string) error {
	if err, ok := s.attachErrOnce[devPath]; ok {
		delete(s.attachErrOnce, devPath)
		return err
	}
	s.record("attach %s %s", devPath, path)
	return nil
}

func (s *sysRecorder) BlockMajor(devPath string) (uint32, error) {
	if s.majorErr != nil {
		return 0, s.majorErr
	}
	s.record("major %s", devPath)
	return 7, nil
}

func (s *sysRecorder) Mknod(devPath string, major, minor uint32) error {
	s.record("mknod %s %d:%d", devPath, major, minor)
	return nil
}

func (s *sysRecorder) Mount(source, target, fstype string, readonly bool) error {
	if s.mountErr != nil {
		if err := s.mountErr(source, target, fstype); err != nil {
			s.record("mount-fail %s %s %s", source, target, fstype)
			return err
		}
	}
	s.record("mount %s %s %s ro=%v", source, target, fstype, readonly)
	return nil
}

func (s *sysRecorder) MountTmpfs(target string, size int64) error {
	s.record("tmpfs %s %d", target, size)
	return nil
}

func (s *sysRecorder) WriteSysctl(key, value string) error {
	if s.sysctlErr != nil {
		return s.sysctlErr
	}
	s.record("sysctl %s=%s", key, value)
	return nil
}

func (s *sysRecorder) Setenv(key, value string) error {
	s.record("setenv %s=%s", key, value)
	return nil
}

// newTestRunner builds a runner over a fresh recorder and an empty
// registry.
func newTestRunner() (*runner, *sysRecorder) {
	sys := &sysRecorder{}
	r := newRunner(registry.New(), sys)
	return r, sys
}

func noopMain(argv []string, stdin io.Reader, stdout io.Writer) int {
	return 0
}
