// Package main starts the MCP server on stdio or HTTP.
package main

import (
	"flag"
	"log"
	"os"

	mcpcmd "github.com/louisbranch/dicenotation/internal/cmd/mcp"
	entrypoint "github.com/louisbranch/dicenotation/internal/platform/cmd"
)

func main() {
	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	// stdout carries the stdio protocol.
	log.SetOutput(os.Stderr)

	ctx, stop := entrypoint.Start(entrypoint.ServiceMCP)
	defer stop()

	if err := mcpcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve MCP: %v", err)
	}
}
