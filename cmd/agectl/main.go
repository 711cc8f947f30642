// Command agectl administers Apache AGE graphs.
package main

import (
	"os"

	"github.com/flancast90/agegraph-go/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:], os.Stdout, os.Stderr))
}
