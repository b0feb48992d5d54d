// Command lifelinksim runs a multi-node LifeLink mesh simulation
// in-process, over a shared in-memory radio medium, for exercising the
// mesh node without hardware.
package main

import "github.com/lifelink/node/cmd/lifelinksim/cmd"

func main() {
	cmd.Execute()
}
