package main

import (
	"os"

	"github.com/pierworks/stevedore/src/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
