package random

import (
	"errors"
	"testing"
)

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed returned error: %v", err)
	}
	b, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed returned error: %v", err)
	}
	if a == b {
		t.Fatalf("NewSeed returned the same seed twice: %d", a)
	}
}

func TestResolveSeedDefaultsToServerSeed(t *testing.T) {
	seed, source, mode, err := ResolveSeed(nil, RollModeLive, func() (int64, error) {
		return 123, nil
	}, nil)
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != 123 {
		t.Fatalf("seed = %d, want 123", seed)
	}
	if source != SeedSourceServer {
		t.Fatalf("seed source = %q, want %q", source, SeedSourceServer)
	}
	if mode != RollModeLive {
		t.Fatalf("roll mode = %q, want %q", mode, RollModeLive)
	}
}

func TestResolveSeedUsesClientSeedForReplay(t *testing.T) {
	requested := uint64(77)
	seed, source, mode, err := ResolveSeed(&requested, RollModeReplay, func() (int64, error) {
		return 123, nil
	}, nil)
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != 77 || source != SeedSourceClient || mode != RollModeReplay {
		t.Fatalf("ResolveSeed = (%d, %q, %q), want (77, %q, %q)", seed, source, mode, SeedSourceClient, RollModeReplay)
	}
}

func TestResolveSeedIgnoresClientSeedWhenDisallowed(t *testing.T) {
	requested := uint64(77)
	seed, source, mode, err := ResolveSeed(&requested, RollModeLive, func() (int64, error) {
		return 555, nil
	}, nil)
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != 555 || source != SeedSourceServer || mode != RollModeLive {
		t.Fatalf("ResolveSeed = (%d, %q, %q), want (555, %q, %q)", seed, source, mode, SeedSourceServer, RollModeLive)
	}
}

func TestResolveSeedRejectsOutOfRangeSeed(t *testing.T) {
	requested := uint64(maxSeedInt64) + 1
	_, _, _, err := ResolveSeed(&requested, RollModeReplay, nil, nil)
	if !errors.Is(err, ErrSeedOutOfRange) {
		t.Fatalf("ResolveSeed error = %v, want %v", err, ErrSeedOutOfRange)
	}
}

func TestResolveSeedPropagatesGeneratorError(t *testing.T) {
	boom := errors.New("boom")
	_, _, _, err := ResolveSeed(nil, RollModeLive, func() (int64, error) {
		return 0, boom
	}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("ResolveSeed error = %v, want %v", err, boom)
	}
}

func TestParseRollMode(t *testing.T) {
	tcs := map[string]RollMode{
		"replay":  RollModeReplay,
		" REPLAY": RollModeReplay,
		"live":    RollModeLive,
		"":        RollModeLive,
		"other":   RollModeLive,
	}
	for in, want := range tcs {
		if got := ParseRollMode(in); got != want {
			t.Fatalf("ParseRollMode(%q) = %q, want %q", in, got, want)
		}
	}
}
