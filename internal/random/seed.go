// Package random provides seed generation and the seeded stream used by dice
// rolls.
//
// Seeds come from crypto/rand unless a caller supplies one for replay. The
// stream is a 48-bit linear congruential generator so a seed always yields
// the same sequence of dice, on every platform and every Go release.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// SeedSource records where the seed of a roll came from.
type SeedSource string

const (
	// SeedSourceServer marks seeds generated by this process.
	SeedSourceServer SeedSource = "SERVER"
	// SeedSourceClient marks seeds supplied by the caller.
	SeedSourceClient SeedSource = "CLIENT"
)

// RollMode tells whether a roll is live or a replay of a recorded one.
type RollMode string

const (
	// RollModeLive rolls with a server seed unless a client seed is allowed.
	RollModeLive RollMode = "LIVE"
	// RollModeReplay rolls with the seed supplied by the caller.
	RollModeReplay RollMode = "REPLAY"
)

// ParseRollMode maps a label to a RollMode, defaulting to live rolls.
func ParseRollMode(value string) RollMode {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(RollModeReplay):
		return RollModeReplay
	default:
		return RollModeLive
	}
}

const maxSeedInt64 = math.MaxInt64

// ErrSeedOutOfRange indicates a client seed does not fit a signed 64-bit seed.
var ErrSeedOutOfRange = errors.New("seed must fit in a signed 64-bit integer")

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ResolveSeed picks the seed for a roll.
//
// A client seed is honored only when allow reports true for the requested
// mode; otherwise generate supplies a server seed and the mode falls back to
// live. A nil allow accepts only replay requests.
func ResolveSeed(requested *uint64, mode RollMode, generate func() (int64, error), allow func(RollMode) bool) (int64, SeedSource, RollMode, error) {
	if allow == nil {
		allow = func(mode RollMode) bool { return mode == RollModeReplay }
	}
	if requested != nil && allow(mode) {
		if *requested > maxSeedInt64 {
			return 0, "", mode, ErrSeedOutOfRange
		}
		return int64(*requested), SeedSourceClient, mode, nil
	}
	if generate == nil {
		generate = NewSeed
	}
	seed, err := generate()
	if err != nil {
		return 0, "", RollModeLive, err
	}
	return seed, SeedSourceServer, RollModeLive, nil
}
