// Command netsim builds a simulated Ethernet/ARP/IPv4 topology from a
// declarative config and replays scripted packet exchanges across it.
package main

import "github.com/mvarga/netsim/cmd/netsim/commands"

func main() {
	commands.Execute()
}
