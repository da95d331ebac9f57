// tdafdr - Target-decoy FDR estimation for search results
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/tdafdr/cmd/tdafdr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
