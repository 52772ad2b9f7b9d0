// Package storage defines persistence contracts for the roll log.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/dicenotation/internal/random"
	"github.com/louisbranch/dicenotation/internal/rollctx"
)

var (
	// ErrNotFound indicates a requested roll record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a roll with the same ID was already stored.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidPageToken indicates a page token this store did not issue.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// RollRecord is one evaluated expression together with everything needed to
// replay it.
type RollRecord struct {
	ID         string
	Expression string
	Canonical  string
	Detail     string
	Value      string
	// ValueIsText is set when the expression produced text, not a number.
	ValueIsText bool
	Rolls       []rollctx.Entry
	Seed        int64
	SeedSource  random.SeedSource
	Mode        random.RollMode
	// ReplayOf names the record a replay re-evaluated.
	ReplayOf  string
	CreatedAt time.Time
}

// RollPage stores one page of roll records, newest first.
type RollPage struct {
	Rolls         []RollRecord
	NextPageToken string
}

// RollStore persists roll records.
type RollStore interface {
	PutRoll(ctx context.Context, record RollRecord) error
	GetRoll(ctx context.Context, id string) (RollRecord, error)
	ListRolls(ctx context.Context, pageSize int, pageToken string) (RollPage, error)
}
