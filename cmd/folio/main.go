// Command folio computes page layouts for paged documents.
package main

import (
	"fmt"
	"os"

	"github.com/justapithecus/folio/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
