// sheetfetch - batch downloader for safe-route travel sheet documents.
package main

import (
	"os"

	"github.com/saferoute/sheetfetch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
