package rolls

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/dicenotation/internal/notation"
	grpcmeta "github.com/louisbranch/dicenotation/internal/platform/grpc/metadata"
	"github.com/louisbranch/dicenotation/internal/random"
	"github.com/louisbranch/dicenotation/internal/roller"
	"github.com/louisbranch/dicenotation/internal/services/roller/api/grpc/rollv1"
	"github.com/louisbranch/dicenotation/internal/services/roller/storage"
)

func TestRoll_NilRequest(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Roll(context.Background(), nil)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestRoll_NotConfigured(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Roll(context.Background(), &rollv1.RollRequest{Expression: "d6"})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.Internal)
	}
}

func TestRoll_ReplaySeedIsHonored(t *testing.T) {
	svc, store := newTestService(t)

	resp, err := svc.Roll(context.Background(), &rollv1.RollRequest{
		Expression: "4d6 + 2",
		Seed:       "10423",
		RollMode:   "REPLAY",
	})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	roll := resp.Roll
	if roll.Value != "17" || roll.Detail != "15 + 2" {
		t.Fatalf("value/detail = %q/%q, want 17/15 + 2", roll.Value, roll.Detail)
	}
	if roll.Canonical != "roll(4, 6) + 2" {
		t.Fatalf("canonical = %q", roll.Canonical)
	}
	if roll.Seed != "10423" || roll.SeedSource != "CLIENT" || roll.RollMode != "REPLAY" {
		t.Fatalf("seed fields = %s %s %s", roll.Seed, roll.SeedSource, roll.RollMode)
	}
	if len(roll.Rolls) != 1 || fmt.Sprint(roll.Rolls[0].Values) != "[4 4 4 3]" {
		t.Fatalf("rolls = %+v", roll.Rolls)
	}
	if roll.ID != "roll-1" {
		t.Fatalf("id = %q, want roll-1", roll.ID)
	}
	if _, ok := store.records["roll-1"]; !ok {
		t.Fatal("expected roll to be logged")
	}
}

func TestRoll_LiveRollUsesServerSeed(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Roll(context.Background(), &rollv1.RollRequest{Expression: "4d6 + 2", Seed: "99"})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if resp.Roll.Seed != "10423" || resp.Roll.SeedSource != "SERVER" || resp.Roll.RollMode != "LIVE" {
		t.Fatalf("seed fields = %s %s %s", resp.Roll.Seed, resp.Roll.SeedSource, resp.Roll.RollMode)
	}
	if resp.Roll.Value != "17" {
		t.Fatalf("value = %q, want 17", resp.Roll.Value)
	}
}

func TestRoll_AllowClientSeeds(t *testing.T) {
	svc, _ := newTestService(t)
	svc.AllowClientSeeds()

	resp, err := svc.Roll(context.Background(), &rollv1.RollRequest{Expression: "d20", Seed: "10423"})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if resp.Roll.SeedSource != "CLIENT" || resp.Roll.RollMode != "LIVE" || resp.Roll.Value != "14" {
		t.Fatalf("roll = %+v", resp.Roll)
	}
}

func TestRoll_VariablesDoNotLeakBetweenRolls(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Roll(context.Background(), &rollv1.RollRequest{Expression: "total = 4d1 + 1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	_, err := svc.Roll(context.Background(), &rollv1.RollRequest{Expression: "total + 1"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
	if reason := errorReason(t, err); reason != "EXPRESSION_UNKNOWN_NAME" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestRoll_DomainErrors(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name   string
		req    *rollv1.RollRequest
		code   codes.Code
		reason string
	}{
		{"empty", &rollv1.RollRequest{Expression: "  "}, codes.InvalidArgument, "EXPRESSION_EMPTY"},
		{"syntax", &rollv1.RollRequest{Expression: "1 +"}, codes.InvalidArgument, "EXPRESSION_SYNTAX"},
		{"unknown function", &rollv1.RollRequest{Expression: "frob(1)"}, codes.InvalidArgument, "EXPRESSION_UNKNOWN_NAME"},
		{"invalid dice", &rollv1.RollRequest{Expression: "3d1e"}, codes.InvalidArgument, "DICE_INVALID_SPEC"},
		{"too many dice", &rollv1.RollRequest{Expression: "20000d6"}, codes.ResourceExhausted, "DICE_TOO_MANY"},
		{"seed above int64", &rollv1.RollRequest{Expression: "d6", Seed: "18446744073709551615", RollMode: "REPLAY"}, codes.InvalidArgument, "SEED_OUT_OF_RANGE"},
		{"seed above uint64", &rollv1.RollRequest{Expression: "d6", Seed: "99999999999999999999999"}, codes.InvalidArgument, "SEED_OUT_OF_RANGE"},
		{"seed not a number", &rollv1.RollRequest{Expression: "d6", Seed: "abc"}, codes.InvalidArgument, "SEED_OUT_OF_RANGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Roll(context.Background(), tt.req)
			if status.Code(err) != tt.code {
				t.Fatalf("code = %v, want %v (%v)", status.Code(err), tt.code, err)
			}
			if reason := errorReason(t, err); reason != tt.reason {
				t.Fatalf("reason = %q, want %q", reason, tt.reason)
			}
		})
	}
}

func TestRoll_LocalizesErrors(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(grpcmeta.LocaleHeader, "pt-BR,pt;q=0.9"))
	_, err := svc.Roll(ctx, &rollv1.RollRequest{Expression: "frob(1)"})
	msg := localizedMessage(t, err)
	if msg.GetLocale() != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", msg.GetLocale())
	}
	if msg.GetMessage() == "" {
		t.Fatal("expected localized message")
	}
}

func TestRoll_StoreFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.putErr = errors.New("disk full")

	_, err := svc.Roll(context.Background(), &rollv1.RollRequest{Expression: "d6"})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.Internal)
	}
}

func TestReplay_ReproducesLoggedRoll(t *testing.T) {
	svc, _ := newTestService(t)
	svc.seedFunc = func() (int64, error) { return 5150, nil }

	first, err := svc.Roll(context.Background(), &rollv1.RollRequest{Expression: "10d6e + 2d6s5 + if(d2 > 1, 3d4, 1)"})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	replay, err := svc.Replay(context.Background(), &rollv1.ReplayRequest{RollID: first.Roll.ID})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	got, want := replay.Roll, first.Roll
	if got.Value != want.Value || got.Detail != want.Detail || got.Seed != want.Seed {
		t.Fatalf("replay = %+v, want %+v", got, want)
	}
	if fmt.Sprint(got.Rolls) != fmt.Sprint(want.Rolls) {
		t.Fatalf("replay rolls = %v, want %v", got.Rolls, want.Rolls)
	}
	if got.RollMode != "REPLAY" || got.ReplayOf != want.ID || got.ID == want.ID {
		t.Fatalf("replay identity = id %s mode %s of %s", got.ID, got.RollMode, got.ReplayOf)
	}
	if got.SeedSource != want.SeedSource {
		t.Fatalf("seed source = %s, want %s", got.SeedSource, want.SeedSource)
	}
}

func TestReplay_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Replay(context.Background(), &rollv1.ReplayRequest{RollID: "missing"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.NotFound)
	}
	if reason := errorReason(t, err); reason != "ROLL_NOT_FOUND" {
		t.Fatalf("reason = %q", reason)
	}
	_, err = svc.Replay(context.Background(), &rollv1.ReplayRequest{RollID: " "})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("blank id code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestGetRoll(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Roll(context.Background(), &rollv1.RollRequest{Expression: "'hello'"})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	got, err := svc.GetRoll(context.Background(), &rollv1.GetRollRequest{RollID: created.Roll.ID})
	if err != nil {
		t.Fatalf("get roll: %v", err)
	}
	if got.Roll.Value != "hello" || !got.Roll.ValueIsText {
		t.Fatalf("roll = %+v", got.Roll)
	}
	if got.Roll.CreatedAt != "2026-10-16T12:00:00Z" {
		t.Fatalf("created_at = %q", got.Roll.CreatedAt)
	}
}

func TestListRolls(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 3; i++ {
		if _, err := svc.Roll(context.Background(), &rollv1.RollRequest{Expression: "d6"}); err != nil {
			t.Fatalf("roll %d: %v", i, err)
		}
	}

	first, err := svc.ListRolls(context.Background(), &rollv1.ListRollsRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("list rolls: %v", err)
	}
	if len(first.Rolls) != 2 || first.Rolls[0].ID != "roll-3" || first.NextPageToken == "" {
		t.Fatalf("first page = %+v", first)
	}
	second, err := svc.ListRolls(context.Background(), &rollv1.ListRollsRequest{PageSize: 2, PageToken: first.NextPageToken})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Rolls) != 1 || second.Rolls[0].ID != "roll-1" || second.NextPageToken != "" {
		t.Fatalf("second page = %+v", second)
	}

	_, err = svc.ListRolls(context.Background(), &rollv1.ListRollsRequest{PageToken: "bogus"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("bad token code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
	if reason := errorReason(t, err); reason != "PAGE_TOKEN_INVALID" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestListRules(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.ListRules(context.Background(), &rollv1.ListRulesRequest{})
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	want := notation.Default().Rules()
	if len(resp.Rules) != len(want) {
		t.Fatalf("rules = %d, want %d", len(resp.Rules), len(want))
	}
	for i, rule := range resp.Rules {
		if rule.Name != want[i].Name || rule.Pattern != want[i].Pattern {
			t.Fatalf("rule %d = %+v, want %+v", i, rule, want[i])
		}
	}
}

func newTestService(t *testing.T) (*Service, *fakeRollStore) {
	t.Helper()

	ev, err := roller.New(roller.WithSeed(1))
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	store := newFakeRollStore()
	svc := NewService(store, ev)
	svc.clock = fixedClock
	svc.seedFunc = func() (int64, error) { return 10423, nil }
	next := 0
	svc.idGenerator = func() (string, error) {
		next++
		return "roll-" + strconv.Itoa(next), nil
	}
	return svc, store
}

func fixedClock() time.Time {
	return time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
}

func errorReason(t *testing.T, err error) string {
	t.Helper()
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("error %v is not a status", err)
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}

func localizedMessage(t *testing.T, err error) *errdetails.LocalizedMessage {
	t.Helper()
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("error %v is not a status", err)
	}
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			return msg
		}
	}
	t.Fatalf("error %v carries no localized message", err)
	return nil
}

type fakeRollStore struct {
	records map[string]storage.RollRecord
	order   []string
	putErr  error
}

func newFakeRollStore() *fakeRollStore {
	return &fakeRollStore{records: make(map[string]storage.RollRecord)}
}

func (f *fakeRollStore) PutRoll(_ context.Context, record storage.RollRecord) error {
	if f.putErr != nil {
		return f.putErr
	}
	if _, exists := f.records[record.ID]; exists {
		return storage.ErrAlreadyExists
	}
	if record.Mode == "" {
		record.Mode = random.RollModeLive
	}
	f.records[record.ID] = record
	f.order = append(f.order, record.ID)
	return nil
}

func (f *fakeRollStore) GetRoll(_ context.Context, id string) (storage.RollRecord, error) {
	if record, ok := f.records[id]; ok {
		return record, nil
	}
	return storage.RollRecord{}, storage.ErrNotFound
}

// ListRolls pages newest first; the token is the index to resume from.
func (f *fakeRollStore) ListRolls(_ context.Context, pageSize int, pageToken string) (storage.RollPage, error) {
	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return storage.RollPage{}, storage.ErrInvalidPageToken
		}
		start = n
	}
	var page storage.RollPage
	for i := len(f.order) - 1 - start; i >= 0 && len(page.Rolls) < pageSize; i-- {
		page.Rolls = append(page.Rolls, f.records[f.order[i]])
	}
	if next := start + len(page.Rolls); next < len(f.order) {
		page.NextPageToken = strconv.Itoa(next)
	}
	return page, nil
}
