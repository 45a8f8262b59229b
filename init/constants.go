// Copyright 2016 Apcera Inc. All rights reserved.

package init

const (
	// bootCmdlineFile is where the kernel exposes the boot command line.
	bootCmdlineFile = "/proc/cmdline"

	// rootCfgMarker on the boot command line points at a configuration
	// file on the root filesystem instead of an inline payload.
	rootCfgMarker = "_EMBER_ROOTCFG="

	// cfgMaxSize caps the size of a root filesystem configuration file.
	cfgMaxSize = 64 * 1024

	// rootfsDir is where the root filesystem is mounted while digging
	// out the configuration file.
	rootfsDir = "/rootfs"

	devDir = "/dev"

	// resolvConfFile is the resolver configuration written by the dns
	// handler.
	resolvConfFile = "/etc/resolv.conf"

	// Limits from resolv.conf(5): at most 3 nameservers, at most 6
	// search domains, and the search line holds at most 1024 characters
	// of domain data.
	maxNameservers    = 3
	maxSearchDomains  = 6
	maxSearchLineData = 1024

	// procSysctlPrefix scopes an rc entry's nested tunables to the
	// process being started.
	procSysctlPrefix = "proc.curproc"
)

// bootDeviceCandidates are probed, in order, when the configuration must
// be fetched from a root filesystem.
var bootDeviceCandidates = []string{
	"/dev/vda1",
	"/dev/sda1",
}

// cloudBootDevice is the passthrough block device registered as a last
// resort when no boot device candidate holds a mountable filesystem.
const (
	cloudBootDeviceName = "rootfs"
	cloudBootDevicePath = "/dev/xvda1"
)
