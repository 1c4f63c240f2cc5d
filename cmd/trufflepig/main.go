// Command trufflepig serves contract build artifacts from a live cache.
package main

import (
	"os"

	"github.com/frods/trufflepig/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
