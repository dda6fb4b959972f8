// Command etymologia enriches species epithets with Finnish word etymologies.
package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/etymologia/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
