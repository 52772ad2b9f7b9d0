package server

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8092 {
		t.Fatalf("port = %d, want 8092", cfg.Port)
	}
	if cfg.AllowClientSeeds {
		t.Fatal("client seeds allowed by default")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("DICENOTATION_ROLLER_PORT", "9000")
	t.Setenv("DICENOTATION_ROLLER_RULES_PATH", "env-rules.yaml")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-rules", "flag-rules.yaml", "-allow-client-seeds"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("port = %d, want env 9000", cfg.Port)
	}
	if cfg.RulesPath != "flag-rules.yaml" {
		t.Fatalf("rules path = %q, want flag value", cfg.RulesPath)
	}
	if !cfg.AllowClientSeeds {
		t.Fatal("expected client seeds allowed")
	}
}
