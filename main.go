package main

import (
	"fmt"
	"os"

	"github.com/coursekit/engine/cmd/coursekit"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
