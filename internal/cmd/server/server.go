// Package server parses roller service flags and launches the service.
package server

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/dicenotation/internal/platform/cmd"
	server "github.com/louisbranch/dicenotation/internal/services/roller/app"
)

// Config holds roller command configuration.
type Config struct {
	Port             int    `env:"ROLLER_PORT"               envDefault:"8092"`
	DBPath           string `env:"ROLLER_DB_PATH"`
	RulesPath        string `env:"ROLLER_RULES_PATH"`
	AllowClientSeeds bool   `env:"ROLLER_ALLOW_CLIENT_SEEDS"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The roller gRPC server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path of the roll log database")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "YAML notation rules replacing the defaults")
	fs.BoolVar(&cfg.AllowClientSeeds, "allow-client-seeds", cfg.AllowClientSeeds, "Honor caller seeds on live rolls")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the roller gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(context.Context) error {
		return server.Run(ctx, cfg.Port, server.Options{
			DBPath:           cfg.DBPath,
			RulesPath:        cfg.RulesPath,
			AllowClientSeeds: cfg.AllowClientSeeds,
		})
	})
}
