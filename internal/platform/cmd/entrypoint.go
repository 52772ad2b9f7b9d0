// Package cmd holds the startup plumbing shared by the dicenotation commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/louisbranch/dicenotation/internal/platform/config"
	"github.com/louisbranch/dicenotation/internal/platform/otel"
)

// Service identifiers for command startup telemetry and log prefixes.
const (
	ServiceRoll   = "roll"
	ServiceServer = "server"
	ServiceMCP    = "mcp"
)

// telemetryFlushTimeout bounds span export after the run loop returns.
var telemetryFlushTimeout = 5 * time.Second

// ParseConfig loads environment defaults into cfg. Tags name variables
// without the DICENOTATION_ prefix.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnvWithPrefix(cfg, config.EnvPrefix)
}

// ParseArgs parses command-line flags. Flags registered with the env values
// already loaded into cfg as defaults override them.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// LogPrefix returns the standard log prefix for a service, e.g. "[ROLL] ".
func LogPrefix(service string) string {
	return "[" + strings.ToUpper(strings.TrimSpace(service)) + "] "
}

// Start sets the service log prefix and returns a context canceled on
// SIGINT or SIGTERM.
func Start(service string) (context.Context, context.CancelFunc) {
	log.SetPrefix(LogPrefix(service))
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// RunWithTelemetry installs the tracer provider for service, runs the loop
// and flushes spans on the way out.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
