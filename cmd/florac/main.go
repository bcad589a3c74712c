package main

import (
	"fmt"
	"os"

	"beemap-platform/cmd/florac/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
