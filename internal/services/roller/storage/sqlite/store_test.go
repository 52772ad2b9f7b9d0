package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/dicenotation/internal/random"
	"github.com/louisbranch/dicenotation/internal/rollctx"
	"github.com/louisbranch/dicenotation/internal/services/roller/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutGetRollRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	input := storage.RollRecord{
		ID:         "roll-1",
		Expression: "4d6 + 2",
		Canonical:  "roll(4, 6) + 2",
		Detail:     "15 + 2",
		Value:      "17",
		Rolls: []rollctx.Entry{
			{Function: "roll", Args: []string{"4", "6"}, Values: []int{4, 4, 4, 3}, Result: "15"},
		},
		Seed:       10423,
		SeedSource: random.SeedSourceClient,
		Mode:       random.RollModeReplay,
		ReplayOf:   "roll-0",
		CreatedAt:  now,
	}
	if err := store.PutRoll(context.Background(), input); err != nil {
		t.Fatalf("put roll: %v", err)
	}

	got, err := store.GetRoll(context.Background(), "roll-1")
	if err != nil {
		t.Fatalf("get roll: %v", err)
	}
	if got.Detail != input.Detail || got.Value != input.Value || got.Canonical != input.Canonical {
		t.Fatalf("roll = %+v, want %+v", got, input)
	}
	if got.Seed != 10423 || got.SeedSource != random.SeedSourceClient || got.Mode != random.RollModeReplay {
		t.Fatalf("seed fields = %d %s %s", got.Seed, got.SeedSource, got.Mode)
	}
	if got.ReplayOf != "roll-0" {
		t.Fatalf("replay_of = %q, want roll-0", got.ReplayOf)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}
	if len(got.Rolls) != 1 || got.Rolls[0].String() != "roll(4, 6): 4, 4, 4, 3 => 15" {
		t.Fatalf("rolls = %v", got.Rolls)
	}
}

func TestPutRollDefaults(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutRoll(context.Background(), storage.RollRecord{ID: "r", Expression: "'hi'", Value: "hi", ValueIsText: true}); err != nil {
		t.Fatalf("put roll: %v", err)
	}
	got, err := store.GetRoll(context.Background(), "r")
	if err != nil {
		t.Fatalf("get roll: %v", err)
	}
	if got.Mode != random.RollModeLive || got.SeedSource != random.SeedSourceServer {
		t.Fatalf("defaults = %s %s", got.Mode, got.SeedSource)
	}
	if !got.ValueIsText {
		t.Fatal("value_is_text was not stored")
	}
	if got.Rolls == nil || len(got.Rolls) != 0 {
		t.Fatalf("rolls = %#v, want empty", got.Rolls)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at was not defaulted")
	}
}

func TestPutRollRejectsInvalid(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutRoll(context.Background(), storage.RollRecord{Expression: "d6"}); err == nil {
		t.Fatal("expected missing id error")
	}
	if err := store.PutRoll(context.Background(), storage.RollRecord{ID: "x"}); err == nil {
		t.Fatal("expected missing expression error")
	}
}

func TestPutRollReturnsAlreadyExistsOnDuplicate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := storage.RollRecord{ID: "dup", Expression: "d6", Value: "4"}
	if err := store.PutRoll(context.Background(), input); err != nil {
		t.Fatalf("put initial roll: %v", err)
	}
	err := store.PutRoll(context.Background(), input)
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate put error = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestGetRollNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.GetRoll(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListRollsPagination(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for i := 1; i <= 5; i++ {
		record := storage.RollRecord{ID: fmt.Sprintf("roll-%d", i), Expression: "d6", Value: "1"}
		if err := store.PutRoll(context.Background(), record); err != nil {
			t.Fatalf("put roll %d: %v", i, err)
		}
	}

	first, err := store.ListRolls(context.Background(), 2, "")
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first.Rolls) != 2 || first.Rolls[0].ID != "roll-5" || first.Rolls[1].ID != "roll-4" {
		t.Fatalf("first page = %+v", first.Rolls)
	}
	if first.NextPageToken == "" {
		t.Fatal("expected next page token")
	}

	var ids []string
	token := first.NextPageToken
	for token != "" {
		page, err := store.ListRolls(context.Background(), 2, token)
		if err != nil {
			t.Fatalf("list page %q: %v", token, err)
		}
		for _, r := range page.Rolls {
			ids = append(ids, r.ID)
		}
		token = page.NextPageToken
	}
	if fmt.Sprint(ids) != "[roll-3 roll-2 roll-1]" {
		t.Fatalf("remaining ids = %v", ids)
	}

	if _, err := store.ListRolls(context.Background(), 0, ""); err == nil {
		t.Fatal("expected page size error")
	}
	if _, err := store.ListRolls(context.Background(), 2, "nope"); !errors.Is(err, storage.ErrInvalidPageToken) {
		t.Fatalf("bad token error = %v, want %v", err, storage.ErrInvalidPageToken)
	}
}

func TestReopenKeepsRolls(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rolls.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.PutRoll(context.Background(), storage.RollRecord{ID: "keep", Expression: "d6", Value: "2"}); err != nil {
		t.Fatalf("put roll: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	if _, err := store.GetRoll(context.Background(), "keep"); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "rolls.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
