package main

import (
	"fmt"
	"os"

	"amsd/internal/amsctl"
)

func main() {
	if err := amsctl.BuildRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "amsctl: %v\n", err)
		os.Exit(1)
	}
}
