package main

import (
	"os"

	"github.com/u-stem/koto/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
