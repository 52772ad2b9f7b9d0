// Package main starts the roller gRPC service process lifecycle.
package main

import (
	"flag"
	"log"
	"os"

	servercmd "github.com/louisbranch/dicenotation/internal/cmd/server"
	entrypoint "github.com/louisbranch/dicenotation/internal/platform/cmd"
)

func main() {
	cfg, err := servercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := entrypoint.Start(entrypoint.ServiceServer)
	defer stop()

	if err := servercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
