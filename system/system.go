// Copyright 2016 Apcera Inc. All rights reserved.

// Package system defines the kernel and OS primitives the boot
// configuration interpreter drives, and provides the Linux
// implementation. The interpreter validates all arguments before calling
// in; every method performs exactly one attempt and reports failure
// through its error return.
package system

// Network configures kernel network state for one boot.
type Network interface {
	// InterfaceCreate creates the named network interface.
	InterfaceCreate(name string) error

	// DHCPv4 runs a one-shot DHCP negotiation on the interface.
	DHCPv4(ifname string) error

	// AddrIPv4 assigns a static IPv4 address with the given prefix
	// length to the interface.
	AddrIPv4(ifname, address string, prefixlen int) error

	// AddrIPv6 assigns a static IPv6 address with the given prefix
	// length to the interface.
	AddrIPv6(ifname, address string, prefixlen int) error

	// AutoIPv6 enables stateless IPv6 autoconfiguration on the
	// interface.
	AutoIPv6(ifname string) error

	// GatewayIPv4 installs the IPv4 default route.
	GatewayIPv4(address string) error

	// GatewayIPv6 installs the IPv6 default route.
	GatewayIPv6(address string) error
}

// Storage manages block devices.
type Storage interface {
	// RegisterBlockDevice makes the backing path available as the named
	// block device under /dev.
	RegisterBlockDevice(name, path string) error

	// AttachLoop binds path read-only as the backing store of the loop
	// device node at devPath. A missing node reports an error matching
	// fs.ErrNotExist; the caller owns node creation and the single
	// retry.
	AttachLoop(devPath, path string) error

	// BlockMajor reports the major device number of the block device
	// node at devPath.
	BlockMajor(devPath string) (uint32, error)

	// Mknod creates a block device node at devPath with the given
	// device numbers.
	Mknod(devPath string, major, minor uint32) error
}

// Mounter mounts filesystems.
type Mounter interface {
	// Mount mounts source at target with the given filesystem type.
	Mount(source, target, fstype string, readonly bool) error

	// MountTmpfs mounts a memory filesystem at target capped at size
	// bytes.
	MountTmpfs(target string, size int64) error
}

// Sysctl writes kernel tunables.
type Sysctl interface {
	// WriteSysctl writes value to the dotted tunable key.
	WriteSysctl(key, value string) error
}

// Environment assigns process environment variables.
type Environment interface {
	Setenv(key, value string) error
}

// Interface is the complete primitive set consumed by the interpreter.
type Interface interface {
	Network
	Storage
	Mounter
	Sysctl
	Environment
}
