package ddns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// InterfaceResolver constructs a resolver that returns the addresses assigned to the given interfaces,
// for hosts whose public address is configured directly on a network interface.
// If no interfaces are provided then all interfaces will be used.
// Loopback and link-local addresses are always skipped.
func InterfaceResolver(iface ...string) Resolver {
	return interfaceResolver{ifaces: iface}
}

type interfaceResolver struct {
	ifaces []string
}

// Resolve implements ddns.Resolver.
func (r interfaceResolver) Resolve(ctx context.Context) ([]netip.Addr, error) {
	if len(r.ifaces) == 0 {
		adds, err := net.InterfaceAddrs()
		if err != nil {
			return nil, fmt.Errorf("error getting interface addresses: %w", err)
		}
		return usableAddrs(adds)
	}

	var addrs []netip.Addr
	var errs []error
	for _, name := range r.ifaces {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("error getting interface %s by name: %w", name, err))
			continue
		}
		adds, err := iface.Addrs()
		if err != nil {
			errs = append(errs, fmt.Errorf("error looking up addresses for interface %s: %w", name, err))
			continue
		}
		a, err := usableAddrs(adds)
		if err != nil {
			errs = append(errs, fmt.Errorf("interface %s: %w", name, err))
		}
		addrs = append(addrs, a...)
	}
	return addrs, errors.Join(errs...)
}

// usableAddrs parses interface addresses such as "ip+net:192.168.86.253/24".
func usableAddrs(adds []net.Addr) (addrs []netip.Addr, err error) {
	var parseErrors []error
	for _, addr := range adds {
		prefix, err := netip.ParsePrefix(addr.String())
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("error parsing local ip %s: %w", addr.String(), err))
			continue
		}
		a := prefix.Addr()
		if a.IsLoopback() || a.IsLinkLocalUnicast() {
			continue
		}
		addrs = append(addrs, a)
	}
	return addrs, errors.Join(parseErrors...)
}
