// Package netsimmetrics exposes Prometheus counters for frame/packet
// traffic, drops, and routing decisions across the device fabric (spec.md
// SPEC_FULL.md §4.13).
package netsimmetrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "netsim"

// Label names shared across the collector's metrics.
const (
	labelDevice = "device"
	labelKind   = "kind"
	labelReason = "reason"
	labelResult = "result"
)

// Collector holds every Prometheus metric this module exports. A nil
// *Collector is safe to call methods on: every method is a no-op when c is
// nil, mirroring the nil-registerer fallback devices rely on so metrics
// remain entirely optional.
type Collector struct {
	FramesTotal     *prometheus.CounterVec
	FramesDropped   *prometheus.CounterVec
	SwitchFloods    *prometheus.CounterVec
	SwitchUnicasts  *prometheus.CounterVec
	RouterForwarded *prometheus.CounterVec
	ARPResolutions  *prometheus.CounterVec
}

// NewCollector creates a Collector with every metric registered against
// reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := newMetrics()
	reg.MustRegister(
		c.FramesTotal,
		c.FramesDropped,
		c.SwitchFloods,
		c.SwitchUnicasts,
		c.RouterForwarded,
		c.ARPResolutions,
	)
	return c
}

func newMetrics() *Collector {
	return &Collector{
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total frames handled by a device, by kind.",
		}, []string{labelDevice, labelKind}),

		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Total frames dropped by a device, by reason.",
		}, []string{labelDevice, labelReason}),

		SwitchFloods: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "switch_floods_total",
			Help:      "Total frames flooded by a switch to every wired port but the source.",
		}, []string{labelDevice}),

		SwitchUnicasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "switch_unicasts_total",
			Help:      "Total frames unicast by a switch via its learned MAC cache.",
		}, []string{labelDevice}),

		RouterForwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_forwarded_total",
			Help:      "Total packets a router delivered locally, forwarded, or dropped (no route, TTL exhaustion, next-hop resolution failure).",
		}, []string{labelDevice, labelResult}),

		ARPResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arp_resolutions_total",
			Help:      "Total ARP resolution attempts, by result (hit, resolved, failed).",
		}, []string{labelDevice, labelResult}),
	}
}

// ObserveFrame increments the frame counter for device/kind. Safe to call on
// a nil Collector.
func (c *Collector) ObserveFrame(device, kind string) {
	if c == nil {
		return
	}
	c.FramesTotal.WithLabelValues(device, kind).Inc()
}

// ObserveDrop increments the drop counter for device/reason. Safe to call on
// a nil Collector.
func (c *Collector) ObserveDrop(device, reason string) {
	if c == nil {
		return
	}
	c.FramesDropped.WithLabelValues(device, reason).Inc()
}

// ObserveSwitchFlood increments the flood counter for a switch. Safe to call
// on a nil Collector.
func (c *Collector) ObserveSwitchFlood(device string) {
	if c == nil {
		return
	}
	c.SwitchFloods.WithLabelValues(device).Inc()
}

// ObserveSwitchUnicast increments the unicast counter for a switch. Safe to
// call on a nil Collector.
func (c *Collector) ObserveSwitchUnicast(device string) {
	if c == nil {
		return
	}
	c.SwitchUnicasts.WithLabelValues(device).Inc()
}

// ObserveRouterOutcome increments the router outcome counter for
// device/result ("delivered", "forwarded", "no_route", "ttl_exceeded",
// "resolution_failed"). Safe to call on a nil Collector.
func (c *Collector) ObserveRouterOutcome(device, result string) {
	if c == nil {
		return
	}
	c.RouterForwarded.WithLabelValues(device, result).Inc()
}

// ObserveARPResolution increments the ARP resolution counter for
// device/result ("hit", "resolved", "failed"). Safe to call on a nil
// Collector.
func (c *Collector) ObserveARPResolution(device, result string) {
	if c == nil {
		return
	}
	c.ARPResolutions.WithLabelValues(device, result).Inc()
}
