// Package rolls implements dicenotation.v1.RollService: it evaluates
// expressions, logs every roll with its seed, and replays logged rolls.
package rolls

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/dicenotation/internal/expression"
	apperrors "github.com/louisbranch/dicenotation/internal/platform/errors"
	grpcmeta "github.com/louisbranch/dicenotation/internal/platform/grpc/metadata"
	"github.com/louisbranch/dicenotation/internal/platform/grpc/pagination"
	"github.com/louisbranch/dicenotation/internal/platform/id"
	"github.com/louisbranch/dicenotation/internal/platform/timeouts"
	"github.com/louisbranch/dicenotation/internal/random"
	"github.com/louisbranch/dicenotation/internal/roller"
	"github.com/louisbranch/dicenotation/internal/services/roller/api/grpc/rollv1"
	"github.com/louisbranch/dicenotation/internal/services/roller/storage"
)

const (
	defaultListRollsPageSize = 10
	maxListRollsPageSize     = 50
)

// Service exposes dicenotation.v1 roll operations.
type Service struct {
	rollv1.UnimplementedRollServiceServer
	store     storage.RollStore
	evaluator *roller.Evaluator
	// allowSeed reports whether a caller seed is honored for a roll mode.
	// Nil honors seeds for replays only.
	allowSeed   func(random.RollMode) bool
	clock       func() time.Time
	idGenerator func() (string, error)
	seedFunc    func() (int64, error)
}

// NewService creates a roll service that evaluates with evaluator's table and
// functions and logs rolls to store.
func NewService(store storage.RollStore, evaluator *roller.Evaluator) *Service {
	return &Service{
		store:       store,
		evaluator:   evaluator,
		clock:       time.Now,
		idGenerator: id.NewID,
		seedFunc:    random.NewSeed,
	}
}

// AllowClientSeeds makes live rolls honor caller seeds too.
func (s *Service) AllowClientSeeds() {
	s.allowSeed = func(random.RollMode) bool { return true }
}

// Roll evaluates one expression and logs it.
func (s *Service) Roll(ctx context.Context, in *rollv1.RollRequest) (*rollv1.RollResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "roll request is required")
	}
	if err := s.configured(); err != nil {
		return nil, err
	}
	locale := grpcmeta.LocaleFromContext(ctx)
	if strings.TrimSpace(in.Expression) == "" {
		return nil, apperrors.HandleError(roller.ErrEmptyExpression, locale)
	}

	requested, err := parseSeed(in.Seed)
	if err != nil {
		return nil, apperrors.HandleError(roller.Classify(in.Expression, err), locale)
	}
	seed, source, mode, err := random.ResolveSeed(requested, random.ParseRollMode(in.RollMode), s.seedFunc, s.allowSeed)
	if err != nil {
		if errors.Is(err, random.ErrSeedOutOfRange) {
			return nil, apperrors.HandleError(roller.Classify(in.Expression, err), locale)
		}
		return nil, status.Errorf(codes.Internal, "generate seed: %v", err)
	}

	record, err := s.evaluate(ctx, in.Expression, seed)
	if err != nil {
		return nil, apperrors.HandleError(roller.Classify(in.Expression, err), locale)
	}
	record.SeedSource = source
	record.Mode = mode
	if err := s.put(ctx, record); err != nil {
		return nil, err
	}
	return &rollv1.RollResponse{Roll: rollToMessage(record)}, nil
}

// Replay re-evaluates a logged roll with its seed and logs the replay.
func (s *Service) Replay(ctx context.Context, in *rollv1.ReplayRequest) (*rollv1.RollResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "replay request is required")
	}
	if err := s.configured(); err != nil {
		return nil, err
	}
	locale := grpcmeta.LocaleFromContext(ctx)
	original, err := s.get(ctx, in.RollID, locale)
	if err != nil {
		return nil, err
	}

	record, err := s.evaluate(ctx, original.Expression, original.Seed)
	if err != nil {
		return nil, apperrors.HandleError(roller.Classify(original.Expression, err), locale)
	}
	record.SeedSource = original.SeedSource
	record.Mode = random.RollModeReplay
	record.ReplayOf = original.ID
	if record.Detail != original.Detail || record.Value != original.Value {
		log.Printf("replay of %s diverged: detail %q value %q, logged detail %q value %q",
			original.ID, record.Detail, record.Value, original.Detail, original.Value)
	}
	if err := s.put(ctx, record); err != nil {
		return nil, err
	}
	return &rollv1.RollResponse{Roll: rollToMessage(record)}, nil
}

// GetRoll returns one logged roll.
func (s *Service) GetRoll(ctx context.Context, in *rollv1.GetRollRequest) (*rollv1.RollResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get roll request is required")
	}
	if err := s.configured(); err != nil {
		return nil, err
	}
	record, err := s.get(ctx, in.RollID, grpcmeta.LocaleFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return &rollv1.RollResponse{Roll: rollToMessage(record)}, nil
}

// ListRolls returns a page of logged rolls, newest first.
func (s *Service) ListRolls(ctx context.Context, in *rollv1.ListRollsRequest) (*rollv1.ListRollsResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list rolls request is required")
	}
	if err := s.configured(); err != nil {
		return nil, err
	}
	pageSize := pagination.ClampPageSize(in.PageSize, pagination.PageSizeConfig{
		Default: defaultListRollsPageSize,
		Max:     maxListRollsPageSize,
	})
	page, err := s.store.ListRolls(ctx, pageSize, in.PageToken)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPageToken) {
			return nil, apperrors.HandleError(
				apperrors.Wrap(apperrors.CodePageTokenInvalid, err.Error(), err),
				grpcmeta.LocaleFromContext(ctx))
		}
		return nil, status.Errorf(codes.Internal, "list rolls: %v", err)
	}

	resp := &rollv1.ListRollsResponse{
		Rolls:         make([]*rollv1.Roll, 0, len(page.Rolls)),
		NextPageToken: page.NextPageToken,
	}
	for _, record := range page.Rolls {
		resp.Rolls = append(resp.Rolls, rollToMessage(record))
	}
	return resp, nil
}

// ListRules returns the notation rules rolls are rewritten with, in order.
func (s *Service) ListRules(_ context.Context, in *rollv1.ListRulesRequest) (*rollv1.ListRulesResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list rules request is required")
	}
	if s == nil || s.evaluator == nil {
		return nil, status.Error(codes.Internal, "roll evaluator is not configured")
	}
	rules := s.evaluator.Table().Rules()
	resp := &rollv1.ListRulesResponse{Rules: make([]*rollv1.Rule, 0, len(rules))}
	for _, rule := range rules {
		resp.Rules = append(resp.Rules, &rollv1.Rule{
			Name:        rule.Name,
			Pattern:     rule.Pattern,
			Replacement: rule.Replacement,
			Samples:     rule.Samples,
		})
	}
	return resp, nil
}

func (s *Service) configured() error {
	if s == nil || s.store == nil {
		return status.Error(codes.Internal, "roll store is not configured")
	}
	if s.evaluator == nil {
		return status.Error(codes.Internal, "roll evaluator is not configured")
	}
	return nil
}

// evaluate rolls raw on a fork of the service evaluator positioned at seed,
// with variables of its own.
func (s *Service) evaluate(ctx context.Context, raw string, seed int64) (storage.RollRecord, error) {
	ev := s.evaluator.Fork(seed, roller.WithVariables(expression.NewVariables()))
	res, err := ev.Evaluate(ctx, raw)
	if err != nil {
		return storage.RollRecord{}, err
	}
	rollID, err := s.idGenerator()
	if err != nil {
		return storage.RollRecord{}, fmt.Errorf("generate roll id: %w", err)
	}
	return storage.RollRecord{
		ID:          rollID,
		Expression:  res.Expression,
		Canonical:   res.Canonical,
		Detail:      res.Detail,
		Value:       res.Value.String(),
		ValueIsText: res.Value.IsText(),
		Rolls:       res.Rolls,
		Seed:        seed,
		CreatedAt:   s.now(),
	}, nil
}

func (s *Service) put(ctx context.Context, record storage.RollRecord) error {
	writeCtx, cancel := context.WithTimeout(ctx, timeouts.StoreWrite)
	defer cancel()
	if err := s.store.PutRoll(writeCtx, record); err != nil {
		return status.Errorf(codes.Internal, "log roll: %v", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, rollID, locale string) (storage.RollRecord, error) {
	rollID = strings.TrimSpace(rollID)
	if rollID == "" {
		return storage.RollRecord{}, status.Error(codes.InvalidArgument, "roll id is required")
	}
	record, err := s.store.GetRoll(ctx, rollID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.RollRecord{}, apperrors.HandleError(apperrors.WrapWithMetadata(
				apperrors.CodeRollNotFound, "roll not found", map[string]string{"RollID": rollID}, err), locale)
		}
		return storage.RollRecord{}, status.Errorf(codes.Internal, "get roll: %v", err)
	}
	return record, nil
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

// parseSeed reads an optional decimal seed.
func parseSeed(value string) (*uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	seed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, random.ErrSeedOutOfRange
		}
		return nil, apperrors.Wrap(apperrors.CodeSeedOutOfRange, fmt.Sprintf("seed %q is not a decimal integer", value), err)
	}
	return &seed, nil
}

func rollToMessage(record storage.RollRecord) *rollv1.Roll {
	entries := make([]rollv1.RollEntry, 0, len(record.Rolls))
	for _, e := range record.Rolls {
		entries = append(entries, rollv1.RollEntry{
			Function: e.Function,
			Args:     e.Args,
			Values:   e.Values,
			Result:   e.Result,
		})
	}
	return &rollv1.Roll{
		ID:          record.ID,
		Expression:  record.Expression,
		Canonical:   record.Canonical,
		Detail:      record.Detail,
		Value:       record.Value,
		ValueIsText: record.ValueIsText,
		Rolls:       entries,
		Seed:        strconv.FormatInt(record.Seed, 10),
		SeedSource:  string(record.SeedSource),
		RollMode:    string(record.Mode),
		ReplayOf:    record.ReplayOf,
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
