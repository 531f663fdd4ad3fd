package device

import (
	"log/slog"

	"github.com/mvarga/netsim/arp"
	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/ipv4"
	"github.com/mvarga/netsim/netsimmetrics"
)

// receiveARP decodes an ARP packet carried in frame and, per spec.md
// §4.4, feeds it to iface's handler and sends any resulting REPLY back
// out the same interface. ARP packets never propagate to the owning
// device.
func receiveARP(iface *Interface, frame ethernet.Frame, logName string) error {
	pkt, err := arp.Decode(frame.Payload)
	if err != nil {
		slog.Warn("device: dropping undecodable ARP packet", slog.String("device", logName), slog.Any("err", err))
		return nil
	}
	reply := iface.ARP.Receive(pkt)
	if reply == nil {
		return nil
	}
	efrm, err := ethernet.NewEthernetII(reply.TargetHardware, iface.MAC, ethernet.TypeARP, reply.Encode())
	if err != nil {
		return err
	}
	return iface.Send(efrm.Encode())
}

// resolveMAC resolves dst against iface's ARP cache, issuing a single
// retry request on a cache miss before failing with
// ErrResolutionFailure, per spec.md §4.6. metrics may be nil.
func resolveMAC(iface *Interface, dst ipv4.Address, metrics *netsimmetrics.Collector, logName string) (ethernet.MAC, error) {
	target := arp.ProtocolAddress(dst)
	if mac, ok := iface.ARP.Cache.Lookup(target); ok {
		metrics.ObserveARPResolution(logName, "hit")
		return mac, nil
	}
	for attempt := 0; attempt < 2; attempt++ {
		req := iface.ARP.RequestFor(target)
		efrm, err := ethernet.NewEthernetII(ethernet.Broadcast, iface.MAC, ethernet.TypeARP, req.Encode())
		if err != nil {
			return ethernet.MAC{}, err
		}
		if err := iface.Send(efrm.Encode()); err != nil {
			return ethernet.MAC{}, err
		}
		if mac, ok := iface.ARP.Cache.Lookup(target); ok {
			metrics.ObserveARPResolution(logName, "resolved")
			return mac, nil
		}
	}
	metrics.ObserveARPResolution(logName, "failed")
	return ethernet.MAC{}, ErrResolutionFailure
}
