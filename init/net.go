// Copyright 2016 Apcera Inc. All rights reserved.

package init

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apcera/ember/jsontree"
)

var netHandlers = []handlerEntry{
	{"interfaces", (*runner).handleInterfaces},
	{"gateways", (*runner).handleGateways},
	{"dns", (*runner).handleDNS},
}

func (r *runner) handleNet(v *jsontree.Value, loc string) error {
	return r.dispatch(v, netHandlers, "net")
}

func (r *runner) handleInterfaces(v *jsontree.Value, loc string) error {
	if err := expect(jsontree.Object, v, "net.interfaces"); err != nil {
		return err
	}
	for _, m := range v.Members {
		if err := r.configureInterface(m); err != nil {
			return err
		}
	}
	return nil
}

// splitCIDR splits an "A/B" literal into its address and prefix length.
func splitCIDR(s string) (string, int, error) {
	if strings.Count(s, "/") != 1 {
		return "", 0, fmt.Errorf("invalid address %q", s)
	}
	idx := strings.IndexByte(s, '/')
	addr := s[:idx]
	plen, err := strconv.Atoi(s[idx+1:])
	if err != nil || addr == "" {
		return "", 0, fmt.Errorf("invalid address %q", s)
	}
	return addr, plen, nil
}

func (r *runner) configureInterface(v *jsontree.Value) error {
	ifname := v.Name
	if err := expect(jsontree.Object, v, "net.interfaces"); err != nil {
		return err
	}

	var addrs *jsontree.Value
	create := false
	for _, m := range v.Members {
		switch m.Name {
		case "create":
			if m.Kind != jsontree.Bool {
				return fmt.Errorf("expected BOOLEAN for key \"create\" in %q", ifname)
			}
			create = m.Bool
		case "addrs":
			if err := expect(jsontree.Array, m, "net.interfaces"); err != nil {
				return err
			}
			addrs = m
		default:
			r.log.Warnf("unexpected key %q in %q, ignored", m.Name, ifname)
		}
	}

	if create {
		if err := r.sys.InterfaceCreate(ifname); err != nil {
			return fmt.Errorf("ifcreate(%s) failed: %v", ifname, err)
		}
	}

	if addrs == nil {
		r.log.Warnf("no addresses configured for interface %q", ifname)
		return nil
	}

	for _, a := range addrs.Members {
		if err := expect(jsontree.Object, a, ifname+".addrs[]"); err != nil {
			return err
		}

		var atype, method, addr string
		for _, m := range a.Members {
			switch m.Name {
			case "type":
				atype = m.Str
			case "method":
				method = m.Str
			case "addr":
				addr = m.Str
			default:
				r.log.Warnf("unexpected key %q in %q, ignored", m.Name, ifname+".addrs[]")
			}
		}

		if atype == "" || method == "" {
			return fmt.Errorf("missing type/method in %q", ifname+".addrs[]")
		}
		switch atype {
		case "inet":
			if err := r.configIPv4(ifname, method, addr); err != nil {
				return err
			}
		case "inet6":
			if err := r.configIPv6(ifname, method, addr); err != nil {
				return err
			}
		default:
			return fmt.Errorf("address type %q not supported in %q", atype, ifname+".addrs[]")
		}
	}
	return nil
}

func (r *runner) configIPv4(ifname, method, cidr string) error {
	switch method {
	case "dhcp":
		if err := r.sys.DHCPv4(ifname); err != nil {
			return fmt.Errorf("%s: configuring dhcp failed: %v", ifname, err)
		}
	case "static":
		if cidr == "" {
			return fmt.Errorf("%s: missing \"addr\"", ifname)
		}
		addr, plen, err := splitCIDR(cidr)
		if err != nil {
			return fmt.Errorf("%s: invalid \"addr\" specified", ifname)
		}
		if err := r.sys.AddrIPv4(ifname, addr, plen); err != nil {
			return fmt.Errorf("%s: ifconfig %q failed: %v", ifname, cidr, err)
		}
	default:
		return fmt.Errorf("%s: method \"static\" or \"dhcp\" expected, got %q", ifname, method)
	}
	return nil
}

func (r *runner) configIPv6(ifname, method, cidr string) error {
	switch method {
	case "auto":
		if err := r.sys.AutoIPv6(ifname); err != nil {
			return fmt.Errorf("%s: ipv6 autoconfig failed: %v", ifname, err)
		}
	case "static":
		if cidr == "" {
			return fmt.Errorf("%s: missing \"addr\"", ifname)
		}
		addr, plen, err := splitCIDR(cidr)
		if err != nil {
			return fmt.Errorf("%s: invalid \"addr\" specified", ifname)
		}
		if err := r.sys.AddrIPv6(ifname, addr, plen); err != nil {
			return fmt.Errorf("%s: ifconfig %q failed: %v", ifname, cidr, err)
		}
	default:
		return fmt.Errorf("%s: method \"static\" or \"auto\" expected, got %q", ifname, method)
	}
	return nil
}

func (r *runner) handleGateways(v *jsontree.Value, loc string) error {
	if err := expect(jsontree.Array, v, "net.gateways"); err != nil {
		return err
	}

	for _, g := range v.Members {
		if err := expect(jsontree.Object, g, "net.gateways[]"); err != nil {
			return err
		}

		var gtype, addr string
		for _, m := range g.Members {
			switch m.Name {
			case "type":
				gtype = m.Str
			case "addr":
				addr = m.Str
			default:
				r.log.Warnf("unexpected key %q in gateways[], ignored", m.Name)
			}
		}

		if gtype == "" || addr == "" {
			return fmt.Errorf("missing type/addr in gateways[]")
		}
		switch gtype {
		case "inet":
			if err := r.sys.GatewayIPv4(addr); err != nil {
				return fmt.Errorf("gw %q addition failed: %v", addr, err)
			}
		case "inet6":
			if err := r.sys.GatewayIPv6(addr); err != nil {
				return fmt.Errorf("gw %q addition failed: %v", addr, err)
			}
		default:
			return fmt.Errorf("gateway type %q not supported in gateways[]", gtype)
		}
	}
	return nil
}

// handleDNS writes the resolver configuration file: one nameserver line
// per entry, then a single space-joined search line. If neither key is
// present the file is left untouched.
func (r *runner) handleDNS(v *jsontree.Value, loc string) error {
	if err := expect(jsontree.Object, v, "net.dns"); err != nil {
		return err
	}

	var nameservers, search *jsontree.Value
	for _, m := range v.Members {
		switch m.Name {
		case "nameservers":
			if err := expect(jsontree.Array, m, "net.dns"); err != nil {
				return err
			}
			nameservers = m
		case "search":
			if err := expect(jsontree.Array, m, "net.dns"); err != nil {
				return err
			}
			search = m
		default:
			r.log.Warnf("unexpected key %q in net.dns, ignored", m.Name)
		}
	}

	if nameservers == nil && search == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(r.resolvConfPath), 0755); err != nil {
		return fmt.Errorf("mkdir %q: %v", filepath.Dir(r.resolvConfPath), err)
	}
	f, err := os.OpenFile(r.resolvConfPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open %q: %v", r.resolvConfPath, err)
	}
	defer f.Close()

	if nameservers != nil {
		for n, ns := range nameservers.Members {
			if err := expect(jsontree.String, ns, "net.dns.nameservers[]"); err != nil {
				return err
			}
			if n+1 > maxNameservers {
				return fmt.Errorf("too many nameservers (max %d)", maxNameservers)
			}
			if _, err := fmt.Fprintf(f, "nameserver %s\n", ns.Str); err != nil {
				return fmt.Errorf("write %q: %v", r.resolvConfPath, err)
			}
		}
	}

	if search != nil {
		var line strings.Builder
		line.WriteString("search")
		for n, d := range search.Members {
			if err := expect(jsontree.String, d, "net.dns.search[]"); err != nil {
				return err
			}
			if n+1 > maxSearchDomains {
				return fmt.Errorf("too many search domains (max %d)", maxSearchDomains)
			}
			line.WriteString(" ")
			line.WriteString(d.Str)
			if line.Len() > len("search ")+maxSearchLineData {
				return fmt.Errorf("search list too long")
			}
		}
		if len(search.Members) > 0 {
			line.WriteString("\n")
			if _, err := f.WriteString(line.String()); err != nil {
				return fmt.Errorf("write %q: %v", r.resolvConfPath, err)
			}
		}
	}
	return nil
}
