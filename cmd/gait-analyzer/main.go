// cmd/gait-analyzer/main.go
package main

import (
	"fmt"
	"os"

	"github.com/kamisoel/gait-analyzer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
