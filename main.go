package main

import (
	"os"

	"github.com/BlankParticle/preview-pkg/internal/cli"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		os.Exit(1)
	}
}
