package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	platformgrpc "github.com/louisbranch/dicenotation/internal/platform/grpc"
	"github.com/louisbranch/dicenotation/internal/services/roller/api/grpc/rollv1"
)

func startServer(t *testing.T, opts Options) rollv1.RollServiceClient {
	t.Helper()

	srv, err := NewWithAddr("127.0.0.1:0", opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})

	conn, err := grpc.NewClient(srv.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial roller server: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := platformgrpc.WaitForHealth(ctx, conn, rollv1.ServiceName, nil); err != nil {
		t.Fatalf("wait for health: %v", err)
	}
	return rollv1.NewRollServiceClient(conn)
}

func TestServer_RollReplayRoundTrip(t *testing.T) {
	t.Setenv("DICENOTATION_ROLLER_DB_PATH", filepath.Join(t.TempDir(), "nested", "rolls.db"))
	client := startServer(t, Options{})
	ctx := context.Background()

	rolled, err := client.Roll(ctx, &rollv1.RollRequest{Expression: "4d6 + 2", Seed: "10423", RollMode: "REPLAY"})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if rolled.Roll.Value != "17" || rolled.Roll.Detail != "15 + 2" {
		t.Fatalf("roll = %+v", rolled.Roll)
	}

	replayed, err := client.Replay(ctx, &rollv1.ReplayRequest{RollID: rolled.Roll.ID})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed.Roll.Value != "17" || replayed.Roll.ReplayOf != rolled.Roll.ID {
		t.Fatalf("replay = %+v", replayed.Roll)
	}

	listed, err := client.ListRolls(ctx, &rollv1.ListRollsRequest{})
	if err != nil {
		t.Fatalf("list rolls: %v", err)
	}
	if len(listed.Rolls) != 2 {
		t.Fatalf("listed %d rolls, want 2", len(listed.Rolls))
	}
}

func TestServer_LoadsRulesFile(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	rules := "rules:\n" +
		"  - name: roll\n" +
		"    pattern: '\\b([0-9]+)[dD]([0-9]+)\\b'\n" +
		"    replacement: 'roll($1, $2)'\n" +
		"    samples: ['4d6']\n"
	if err := os.WriteFile(rulesPath, []byte(rules), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	client := startServer(t, Options{
		DBPath:           filepath.Join(dir, "rolls.db"),
		RulesPath:        rulesPath,
		AllowClientSeeds: true,
	})

	listed, err := client.ListRules(context.Background(), &rollv1.ListRulesRequest{})
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(listed.Rules) != 1 || listed.Rules[0].Name != "roll" {
		t.Fatalf("rules = %+v", listed.Rules)
	}

	rolled, err := client.Roll(context.Background(), &rollv1.RollRequest{Expression: "4d6 + 2", Seed: "10423"})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if rolled.Roll.SeedSource != "CLIENT" || rolled.Roll.Value != "17" {
		t.Fatalf("roll = %+v", rolled.Roll)
	}
}

func TestNewWithAddr_BadRulesFile(t *testing.T) {
	dir := t.TempDir()
	_, err := NewWithAddr("127.0.0.1:0", Options{
		DBPath:    filepath.Join(dir, "rolls.db"),
		RulesPath: filepath.Join(dir, "missing.yaml"),
	})
	if err == nil {
		t.Fatal("expected error for missing rules file")
	}
}
