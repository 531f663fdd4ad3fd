// Package topo builds a live device.Network graph from a netsimcfg.Topology
// description: switches, hosts, routers, and the point-to-point links
// wiring their interfaces together (SPEC_FULL.md §4.14).
package topo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mvarga/netsim/device"
	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/hdlc"
	"github.com/mvarga/netsim/ipv4"
	"github.com/mvarga/netsim/netsimcfg"
	"github.com/mvarga/netsim/netsimmetrics"
)

// Errors returned while resolving and wiring a topology.
var (
	ErrUnknownDevice     = errors.New("topo: unknown device name")
	ErrUnknownInterface  = errors.New("topo: interface index out of range")
	ErrUnknownRouterKind = errors.New("topo: unknown router interface kind")
	ErrUnknownHDLCMode   = errors.New("topo: unknown HDLC mode")
	ErrAmbiguousEndpoint = errors.New("topo: switch or router endpoint requires an explicit interface index")
)

// Network is the live device graph built from a Topology, indexed by the
// names given in configuration.
type Network struct {
	Switches map[string]*device.EthernetSwitch
	Hosts    map[string]*device.IPHost
	Routers  map[string]*device.IPRouter
	HDLCMode hdlc.Mode
}

// Build constructs every device named in top, wires every link, and
// returns the resulting Network. metrics may be nil.
func Build(top *netsimcfg.Topology, metrics *netsimmetrics.Collector) (*Network, error) {
	mode, err := parseHDLCMode(top.HDLC.Mode)
	if err != nil {
		return nil, err
	}
	net := &Network{
		Switches: make(map[string]*device.EthernetSwitch, len(top.Switches)),
		Hosts:    make(map[string]*device.IPHost, len(top.Hosts)),
		Routers:  make(map[string]*device.IPRouter, len(top.Routers)),
		HDLCMode: mode,
	}

	for _, sc := range top.Switches {
		sw := device.NewEthernetSwitch(sc.Name, sc.Ports)
		sw.Metrics = metrics
		for i, port := range sw.Ports {
			port.Label = fmt.Sprintf("%s.%d", sc.Name, i)
		}
		net.Switches[sc.Name] = sw
	}

	for _, hc := range top.Hosts {
		h, err := buildHost(hc, metrics)
		if err != nil {
			return nil, fmt.Errorf("topo: host %q: %w", hc.Name, err)
		}
		net.Hosts[hc.Name] = h
	}

	for _, rc := range top.Routers {
		r, err := buildRouter(rc, metrics)
		if err != nil {
			return nil, fmt.Errorf("topo: router %q: %w", rc.Name, err)
		}
		net.Routers[rc.Name] = r
	}

	for _, lc := range top.Links {
		a, err := net.resolve(lc.A)
		if err != nil {
			return nil, fmt.Errorf("topo: link %s-%s: %w", lc.A, lc.B, err)
		}
		b, err := net.resolve(lc.B)
		if err != nil {
			return nil, fmt.Errorf("topo: link %s-%s: %w", lc.A, lc.B, err)
		}
		if err := device.Connect(a, b); err != nil {
			return nil, fmt.Errorf("topo: link %s-%s: %w", lc.A, lc.B, err)
		}
	}
	return net, nil
}

func buildHost(hc netsimcfg.HostConfig, metrics *netsimmetrics.Collector) (*device.IPHost, error) {
	mac, err := ethernet.ParseMAC(hc.MAC)
	if err != nil {
		return nil, fmt.Errorf("mac: %w", err)
	}
	ip, err := ipv4.ParseAddress(hc.IP)
	if err != nil {
		return nil, fmt.Errorf("ip: %w", err)
	}
	network, err := ipv4.ParseNetwork(hc.Network)
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	h := device.NewIPHost(hc.Name, mac, ip, network)
	h.Metrics = metrics
	h.Eth.Label = hc.Name + ".eth0"
	if hc.Gateway != "" {
		gw, err := ipv4.ParseAddress(hc.Gateway)
		if err != nil {
			return nil, fmt.Errorf("gateway: %w", err)
		}
		h.SetGateway(gw)
	}
	return h, nil
}

func buildRouter(rc netsimcfg.RouterConfig, metrics *netsimmetrics.Collector) (*device.IPRouter, error) {
	r := device.NewIPRouter(rc.Name)
	r.Metrics = metrics
	for i, ic := range rc.Interfaces {
		network, err := ipv4.ParseNetwork(ic.Network)
		if err != nil {
			return nil, fmt.Errorf("interface %d network: %w", i, err)
		}
		ip, err := ipv4.ParseAddress(ic.IP)
		if err != nil {
			return nil, fmt.Errorf("interface %d ip: %w", i, err)
		}
		var iface *device.Interface
		switch ic.Kind {
		case "ethernet", "":
			mac, err := ethernet.ParseMAC(ic.MAC)
			if err != nil {
				return nil, fmt.Errorf("interface %d mac: %w", i, err)
			}
			iface = r.AddEthernetInterface(mac, ip, network)
		case "hdlc":
			iface = r.AddHDLCInterface(ip, network)
		case "ppp":
			iface = r.AddPPPInterface(ip, network)
		default:
			return nil, fmt.Errorf("interface %d kind %q: %w", i, ic.Kind, ErrUnknownRouterKind)
		}
		iface.Label = fmt.Sprintf("%s.%d", rc.Name, i)
	}
	if rc.Default != "" {
		idx, err := strconv.Atoi(rc.Default)
		if err != nil || idx < 0 || idx >= len(r.Interfaces) {
			return nil, fmt.Errorf("default %q: %w", rc.Default, ErrUnknownInterface)
		}
		r.SetDefault(idx)
	}
	return r, nil
}

// resolve looks up the interface named by endpoint, which is either a bare
// host name or "device.index"; switches and routers always need the index.
func (n *Network) resolve(endpoint string) (*device.Interface, error) {
	name, idx, hasIdx := strings.Cut(endpoint, ".")
	if sw, ok := n.Switches[name]; ok {
		if !hasIdx {
			return nil, fmt.Errorf("switch %q: %w", name, ErrAmbiguousEndpoint)
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(sw.Ports) {
			return nil, fmt.Errorf("switch %q port %q: %w", name, idx, ErrUnknownInterface)
		}
		return sw.Ports[i], nil
	}
	if h, ok := n.Hosts[name]; ok {
		return h.Eth, nil
	}
	if r, ok := n.Routers[name]; ok {
		if !hasIdx {
			return nil, fmt.Errorf("router %q: %w", name, ErrAmbiguousEndpoint)
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(r.Interfaces) {
			return nil, fmt.Errorf("router %q interface %q: %w", name, idx, ErrUnknownInterface)
		}
		return r.Interfaces[i], nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownDevice)
}

func parseHDLCMode(s string) (hdlc.Mode, error) {
	switch s {
	case "", "async_balanced":
		return hdlc.ASYNC_BALANCED, nil
	case "async":
		return hdlc.ASYNC, nil
	case "normal":
		return hdlc.NORMAL, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownHDLCMode)
	}
}
