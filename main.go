package main

import (
	"os"

	"github.com/intelliplan/planboard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
