// Command procsim runs the example models built on the simulation kernel.
package main

import (
	"github.com/sarchlab/procsim/procsim/cmd"
)

func main() {
	cmd.Execute()
}
