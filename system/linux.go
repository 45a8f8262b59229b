// Copyright 2016 Apcera Inc. All rights reserved.

//go:build linux

package system

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

type linuxSystem struct{}

// Linux returns the primitive set backed by the running kernel.
func Linux() Interface {
	return &linuxSystem{}
}

func (s *linuxSystem) InterfaceCreate(name string) error {
	link := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: name}}
	if err := netlink.LinkAdd(link); err != nil {
		return fmt.Errorf("failed to create interface %q: %v", name, err)
	}
	return nil
}

func (s *linuxSystem) DHCPv4(ifname string) error {
	cmd := exec.Command("udhcpc", "-i", ifname, "-t", "20", "-n")
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to configure %s with DHCP: %v", ifname, err)
	}
	return nil
}

func (s *linuxSystem) AddrIPv4(ifname, address string, prefixlen int) error {
	return s.addrAdd(ifname, address, prefixlen)
}

func (s *linuxSystem) AddrIPv6(ifname, address string, prefixlen int) error {
	return s.addrAdd(ifname, address, prefixlen)
}

func (s *linuxSystem) addrAdd(ifname, address string, prefixlen int) error {
	link, err := netlink.LinkByName(ifname)
	if err != nil {
		return fmt.Errorf("failed to find interface %q: %v", ifname, err)
	}
	addr, err := netlink.ParseAddr(fmt.Sprintf("%s/%d", address, prefixlen))
	if err != nil {
		return fmt.Errorf("failed to parse address %q on %s: %v", address, ifname, err)
	}
	if err := netlink.AddrAdd(link, addr); err != nil {
		return fmt.Errorf("failed to configure address %q on %s: %v", address, ifname, err)
	}

	// verify it is up at the end
	if link.Attrs().Flags&net.FlagUp == 0 {
		if err := netlink.LinkSetUp(link); err != nil {
			return fmt.Errorf("failed to set link %s up: %v", ifname, err)
		}
	}
	return nil
}

func (s *linuxSystem) AutoIPv6(ifname string) error {
	conf := filepath.Join("/proc/sys/net/ipv6/conf", ifname)
	if err := os.WriteFile(filepath.Join(conf, "accept_ra"), []byte("2"), 0644); err != nil {
		return fmt.Errorf("failed to enable router advertisements on %s: %v", ifname, err)
	}
	if err := os.WriteFile(filepath.Join(conf, "autoconf"), []byte("1"), 0644); err != nil {
		return fmt.Errorf("failed to enable autoconfiguration on %s: %v", ifname, err)
	}
	link, err := netlink.LinkByName(ifname)
	if err != nil {
		return fmt.Errorf("failed to find interface %q: %v", ifname, err)
	}
	if link.Attrs().Flags&net.FlagUp == 0 {
		if err := netlink.LinkSetUp(link); err != nil {
			return fmt.Errorf("failed to set link %s up: %v", ifname, err)
		}
	}
	return nil
}

func (s *linuxSystem) GatewayIPv4(address string) error {
	return s.gatewayAdd(address)
}

func (s *linuxSystem) GatewayIPv6(address string) error {
	return s.gatewayAdd(address)
}

func (s *linuxSystem) gatewayAdd(address string) error {
	gw := net.ParseIP(address)
	if gw == nil {
		return fmt.Errorf("failed to parse gateway address %q", address)
	}
	route := &netlink.Route{
		Scope: netlink.SCOPE_UNIVERSE,
		Gw:    gw,
	}
	if err := netlink.RouteAdd(route); err != nil {
		return fmt.Errorf("failed to add gateway %q: %v", address, err)
	}
	return nil
}

func (s *linuxSystem) RegisterBlockDevice(name, path string) error {
	target := filepath.Join("/dev", name)
	if err := os.Symlink(path, target); err != nil {
		return fmt.Errorf("failed to register block device %q: %v", name, err)
	}
	return nil
}

func (s *linuxSystem) AttachLoop(devPath, path string) error {
	dev, err := os.OpenFile(devPath, os.O_RDWR, 0)
	if err != nil {
		// a missing node surfaces as fs.ErrNotExist for the caller
		return err
	}
	defer dev.Close()

	backing, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backing file %q: %v", path, err)
	}
	defer backing.Close()

	if err := unix.IoctlSetInt(int(dev.Fd()), unix.LOOP_SET_FD, int(backing.Fd())); err != nil {
		return fmt.Errorf("failed to bind %q to %s: %v", path, devPath, err)
	}
	status := &unix.LoopInfo64{Flags: unix.LO_FLAGS_READ_ONLY}
	if err := unix.IoctlLoopSetStatus64(int(dev.Fd()), status); err != nil {
		return fmt.Errorf("failed to set %s read-only: %v", devPath, err)
	}
	return nil
}

func (s *linuxSystem) BlockMajor(devPath string) (uint32, error) {
	var st unix.Stat_t
	if err := unix.Stat(devPath, &st); err != nil {
		return 0, fmt.Errorf("failed to stat %s: %v", devPath, err)
	}
	return unix.Major(uint64(st.Rdev)), nil
}

func (s *linuxSystem) Mknod(devPath string, major, minor uint32) error {
	dev := unix.Mkdev(major, minor)
	if err := unix.Mknod(devPath, unix.S_IFBLK|0666, int(dev)); err != nil {
		return fmt.Errorf("failed to mknod %s: %v", devPath, err)
	}
	return nil
}

func (s *linuxSystem) Mount(source, target, fstype string, readonly bool) error {
	flags := uintptr(syscall.MS_MGC_VAL)
	if readonly {
		flags |= unix.MS_RDONLY
	}
	return unix.Mount(source, target, fstype, flags, "")
}

func (s *linuxSystem) MountTmpfs(target string, size int64) error {
	data := fmt.Sprintf("size=%d,mode=1777", size)
	return unix.Mount("tmpfs", target, "tmpfs", 0, data)
}

func (s *linuxSystem) WriteSysctl(key, value string) error {
	path := filepath.Join("/proc/sys", strings.ReplaceAll(key, ".", "/"))
	return os.WriteFile(path, []byte(value), 0644)
}

func (s *linuxSystem) Setenv(key, value string) error {
	return os.Setenv(key, value)
}
