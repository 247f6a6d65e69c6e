package main

import (
	"os"

	"github.com/buildr-dev/buildr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
