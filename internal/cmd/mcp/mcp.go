// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"strings"

	entrypoint "github.com/louisbranch/dicenotation/internal/platform/cmd"
	mcpservice "github.com/louisbranch/dicenotation/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	Addr         string   `env:"MCP_ROLLER_ADDR"   envDefault:"localhost:8092"`
	HTTPAddr     string   `env:"MCP_HTTP_ADDR"     envDefault:"localhost:8085"`
	Transport    string   `env:"MCP_TRANSPORT"     envDefault:"stdio"`
	AllowedHosts []string `env:"MCP_ALLOWED_HOSTS" envSeparator:","`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	allowedHosts := strings.Join(cfg.AllowedHosts, ",")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "roller server address")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&allowedHosts, "allowed-hosts", allowedHosts, "Comma-separated hosts accepted besides loopback (for HTTP transport)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.AllowedHosts = splitHosts(allowedHosts)
	return cfg, nil
}

func splitHosts(value string) []string {
	var hosts []string
	for _, host := range strings.Split(value, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	transport, err := mcpservice.ParseTransport(cfg.Transport)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			GRPCAddr:     cfg.Addr,
			Transport:    transport,
			HTTPAddr:     cfg.HTTPAddr,
			AllowedHosts: cfg.AllowedHosts,
		})
	})
}
