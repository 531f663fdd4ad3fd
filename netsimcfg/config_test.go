package netsimcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
switches:
  - name: sw0
    ports: 4
hosts:
  - name: A
    mac: "a1:00:00:00:00:01"
    ip: "192.0.2.2"
    network: "192.0.2.0/24"
routers:
  - name: r0
    interfaces:
      - kind: ethernet
        mac: "a0:00:00:00:00:01"
        ip: "192.0.2.1"
        network: "192.0.2.0/24"
links:
  - a: A
    b: sw0
log:
  level: debug
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRoundTrip(t *testing.T) {
	path := writeTemp(t, sampleYAML)
	top, err := Load(path)
	require.NoError(t, err)

	require.Len(t, top.Switches, 1)
	assert.Equal(t, "sw0", top.Switches[0].Name)
	assert.Equal(t, 4, top.Switches[0].Ports)

	require.Len(t, top.Hosts, 1)
	assert.Equal(t, "192.0.2.2", top.Hosts[0].IP)

	require.Len(t, top.Routers, 1)
	require.Len(t, top.Routers[0].Interfaces, 1)
	assert.Equal(t, "ethernet", top.Routers[0].Interfaces[0].Kind)

	assert.Equal(t, "debug", top.Log.Level)
	assert.Equal(t, "async_balanced", top.HDLC.Mode, "unset fields fall back to defaults")
}

func TestLoadRejectsZeroPortSwitch(t *testing.T) {
	path := writeTemp(t, "switches:\n  - name: sw0\n    ports: 0\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrNoSwitchPorts)
}

func TestEnvOverride(t *testing.T) {
	path := writeTemp(t, sampleYAML)
	t.Setenv("NETSIM_LOG_LEVEL", "warn")
	top, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", top.Log.Level)
}
