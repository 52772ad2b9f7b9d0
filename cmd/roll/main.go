// Package main provides the dice roller CLI.
package main

import (
	"flag"
	"os"

	rollcmd "github.com/louisbranch/dicenotation/internal/cmd/roll"
	entrypoint "github.com/louisbranch/dicenotation/internal/platform/cmd"
	"github.com/louisbranch/dicenotation/internal/platform/config"
)

func main() {
	cfg, err := rollcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	ctx, stop := entrypoint.Start(entrypoint.ServiceRoll)
	defer stop()

	if err := rollcmd.Run(ctx, cfg, os.Stdin, os.Stdout, os.Stderr); err != nil {
		config.Exitf("%v", err)
	}
}
