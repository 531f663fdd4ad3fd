// Package netsimcfg loads a declarative network topology from YAML, with
// environment variable overrides, using koanf/v2 (spec.md SPEC_FULL.md
// §4.12).
package netsimcfg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SwitchConfig describes one EthernetSwitch.
type SwitchConfig struct {
	Name  string `koanf:"name"`
	Ports int    `koanf:"ports"`
}

// HostConfig describes one IPHost.
type HostConfig struct {
	Name    string `koanf:"name"`
	MAC     string `koanf:"mac"`
	IP      string `koanf:"ip"`
	Network string `koanf:"network"`
	Gateway string `koanf:"gateway"`
}

// RouterInterfaceConfig describes one interface of a RouterConfig.
type RouterInterfaceConfig struct {
	Kind    string `koanf:"kind"` // "ethernet", "hdlc", "ppp"
	MAC     string `koanf:"mac"`  // ethernet only
	IP      string `koanf:"ip"`
	Network string `koanf:"network"`
}

// RouterConfig describes one IPRouter.
type RouterConfig struct {
	Name       string                  `koanf:"name"`
	Interfaces []RouterInterfaceConfig `koanf:"interfaces"`
	Default    string                  `koanf:"default"` // optional interface index (decimal) for the default route
}

// LinkConfig wires two named endpoints ("device.index", or a bare host
// name) together point to point.
type LinkConfig struct {
	A string `koanf:"a"`
	B string `koanf:"b"`
}

// HDLCConfig names an HDLC transmission mode. topo.Build validates it and
// records it as Network.HDLCMode; router HDLC interfaces do not read it and
// always frame in ASYNC_BALANCED mode.
type HDLCConfig struct {
	Mode string `koanf:"mode"` // "normal", "async", "async_balanced"
}

// LogConfig sets the slog level and output format.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Topology is the complete declarative description of a simulated network.
type Topology struct {
	Switches []SwitchConfig `koanf:"switches"`
	Hosts    []HostConfig   `koanf:"hosts"`
	Routers  []RouterConfig `koanf:"routers"`
	Links    []LinkConfig   `koanf:"links"`
	HDLC     HDLCConfig     `koanf:"hdlc"`
	Log      LogConfig      `koanf:"log"`
}

// envPrefix is the environment variable prefix for netsim configuration,
// e.g. NETSIM_LOG_LEVEL -> log.level.
const envPrefix = "NETSIM_"

// DefaultTopology returns a Topology populated with sensible defaults.
func DefaultTopology() *Topology {
	return &Topology{
		HDLC: HDLCConfig{Mode: "async_balanced"},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

var (
	// ErrNoSwitchPorts indicates a switch config has a non-positive port count.
	ErrNoSwitchPorts = errors.New("netsimcfg: switch.ports must be > 0")
	// ErrEmptyName indicates a device entry has an empty name.
	ErrEmptyName = errors.New("netsimcfg: device name must not be empty")
)

// Load reads a Topology from the YAML file at path, overlaid with
// NETSIM_-prefixed environment variables, merged on top of
// DefaultTopology().
func Load(path string) (*Topology, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("netsimcfg: load defaults: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("netsimcfg: load %s: %w", path, err)
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("netsimcfg: load env overrides: %w", err)
	}

	var top Topology
	if err := k.Unmarshal("", &top); err != nil {
		return nil, fmt.Errorf("netsimcfg: unmarshal: %w", err)
	}
	if err := Validate(&top); err != nil {
		return nil, fmt.Errorf("netsimcfg: validate %s: %w", path, err)
	}
	return &top, nil
}

// loadDefaults sets the base layer koanf merges the YAML file and
// environment overrides on top of.
func loadDefaults(k *koanf.Koanf) error {
	defaults := DefaultTopology()
	defaultMap := map[string]any{
		"hdlc.mode":  defaults.HDLC.Mode,
		"log.level":  defaults.Log.Level,
		"log.format": defaults.Log.Format,
	}
	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// Validate checks structural invariants Load's unmarshal step cannot catch
// on its own (addresses themselves are parsed later by the ipv4/ethernet
// packages when the topology is built into devices).
func Validate(top *Topology) error {
	for _, sw := range top.Switches {
		if sw.Name == "" {
			return ErrEmptyName
		}
		if sw.Ports <= 0 {
			return fmt.Errorf("switch %q: %w", sw.Name, ErrNoSwitchPorts)
		}
	}
	for _, h := range top.Hosts {
		if h.Name == "" {
			return ErrEmptyName
		}
	}
	for _, r := range top.Routers {
		if r.Name == "" {
			return ErrEmptyName
		}
	}
	return nil
}
