package main

import (
	"os"

	"github.com/Protocol-Lattice/lattice-edit/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
