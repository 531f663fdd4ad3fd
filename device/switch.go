package device

import (
	"log/slog"

	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/netsimmetrics"
)

// EthernetSwitch is a MAC-learning Ethernet switch (spec.md §4.5). Every
// port is an Ethernet interface; frames are never sent back out the port
// they arrived on.
type EthernetSwitch struct {
	Name    string
	Ports   []*Interface
	Metrics *netsimmetrics.Collector

	cache map[ethernet.MAC]int
}

// NewEthernetSwitch returns a switch with the given number of unwired
// Ethernet ports.
func NewEthernetSwitch(name string, numPorts int) *EthernetSwitch {
	s := &EthernetSwitch{Name: name, cache: make(map[ethernet.MAC]int)}
	s.Ports = make([]*Interface, numPorts)
	for i := range s.Ports {
		s.Ports[i] = NewInterface(s, i, KindEthernet)
	}
	return s
}

// Receive learns the frame's source MAC against inIdx, then forwards to
// the cached port for its destination MAC or floods to every wired port
// other than inIdx if the destination is unknown or the broadcast address.
func (s *EthernetSwitch) Receive(data []byte, inIdx int) error {
	frame, err := ethernet.Decode(data)
	if err != nil {
		slog.Warn("switch: dropping undecodable frame", slog.String("switch", s.Name), slog.Any("err", err))
		s.Metrics.ObserveDrop(s.Name, "undecodable")
		return nil
	}
	s.Metrics.ObserveFrame(s.Name, frame.EtherType.String())
	s.cache[frame.Source] = inIdx

	if !frame.Destination.IsBroadcast() {
		if outIdx, ok := s.cache[frame.Destination]; ok {
			port := s.Ports[outIdx]
			if port.Peer == nil {
				slog.Debug("switch: cached port unwired, dropping", slog.String("switch", s.Name), slog.Int("port", outIdx))
				s.Metrics.ObserveDrop(s.Name, "unwired")
				return nil
			}
			s.Metrics.ObserveSwitchUnicast(s.Name)
			return port.Send(data)
		}
	}

	s.Metrics.ObserveSwitchFlood(s.Name)
	for i, port := range s.Ports {
		if i == inIdx || port.Peer == nil {
			continue
		}
		if err := port.Send(data); err != nil {
			slog.Debug("switch: flood failed on port", slog.String("switch", s.Name), slog.Int("port", i), slog.Any("err", err))
		}
	}
	return nil
}
