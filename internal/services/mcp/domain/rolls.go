package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	apperrors "github.com/louisbranch/dicenotation/internal/platform/errors"
	"github.com/louisbranch/dicenotation/internal/services/roller/api/grpc/rollv1"
)

// RngRequest represents optional RNG configuration for deterministic rolls.
type RngRequest struct {
	Seed     string `json:"seed,omitempty" jsonschema:"optional decimal seed for deterministic rolls"`
	RollMode string `json:"roll_mode,omitempty" jsonschema:"roll mode (LIVE or REPLAY); seeds are honored for REPLAY"`
}

// RngResult represents RNG details used for a roll.
type RngResult struct {
	SeedUsed   string `json:"seed_used" jsonschema:"decimal seed the roll was made with"`
	SeedSource string `json:"seed_source" jsonschema:"seed source (CLIENT or SERVER)"`
	RollMode   string `json:"roll_mode" jsonschema:"roll mode applied"`
}

// RollEntryResult is one dice function call made while evaluating.
type RollEntryResult struct {
	Function string   `json:"function" jsonschema:"dice function name"`
	Args     []string `json:"args" jsonschema:"arguments the function was called with"`
	Values   []int    `json:"values,omitempty" jsonschema:"individual die results"`
	Result   string   `json:"result" jsonschema:"value the call produced"`
}

// RollResult represents a logged roll.
type RollResult struct {
	ID          string            `json:"id" jsonschema:"roll identifier"`
	Expression  string            `json:"expression" jsonschema:"expression as written"`
	Canonical   string            `json:"canonical" jsonschema:"expression after notation rewrite"`
	Detail      string            `json:"detail" jsonschema:"canonical expression with each roll replaced by its value"`
	Value       string            `json:"value" jsonschema:"final value"`
	ValueIsText bool              `json:"value_is_text,omitempty" jsonschema:"whether the value is text rather than a number"`
	Rolls       []RollEntryResult `json:"rolls,omitempty" jsonschema:"dice calls in evaluation order"`
	Rng         RngResult         `json:"rng" jsonschema:"rng details"`
	ReplayOf    string            `json:"replay_of,omitempty" jsonschema:"roll this one replays"`
	CreatedAt   string            `json:"created_at" jsonschema:"RFC3339 timestamp"`
}

// RollExpressionInput represents the MCP tool input for rolling an expression.
type RollExpressionInput struct {
	Expression string      `json:"expression" jsonschema:"dice expression such as 4d6h3 + 2"`
	Rng        *RngRequest `json:"rng,omitempty" jsonschema:"optional rng configuration"`
	Locale     string      `json:"locale,omitempty" jsonschema:"optional locale for error messages, e.g. pt-BR"`
}

// ReplayRollInput represents the MCP tool input for replaying a roll.
type ReplayRollInput struct {
	RollID string `json:"roll_id" jsonschema:"identifier of the roll to replay"`
	Locale string `json:"locale,omitempty" jsonschema:"optional locale for error messages"`
}

// ListRollsInput represents the MCP tool input for listing logged rolls.
type ListRollsInput struct {
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum rolls to return"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
}

// ListRollsResult represents the MCP tool output for listing logged rolls.
type ListRollsResult struct {
	Rolls         []RollResult `json:"rolls" jsonschema:"rolls, newest first"`
	NextPageToken string       `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
}

// NotationRulesInput represents the MCP tool input for listing notation rules.
type NotationRulesInput struct{}

// NotationRule is one shorthand rewrite rule.
type NotationRule struct {
	Name        string   `json:"name" jsonschema:"rule name"`
	Pattern     string   `json:"pattern" jsonschema:"regular expression the rule matches"`
	Replacement string   `json:"replacement" jsonschema:"canonical text the match is rewritten to"`
	Samples     []string `json:"samples,omitempty" jsonschema:"example inputs"`
}

// NotationRulesResult represents the MCP tool output for notation rules.
type NotationRulesResult struct {
	Rules []NotationRule `json:"rules" jsonschema:"rules in the order they are applied"`
}

// RollExpressionTool defines the MCP tool schema for rolling an expression.
func RollExpressionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_expression",
		Description: "Evaluates a dice expression (4d6h3 + 2, 10d6e, if(d20 > 10, 2d8, 0)) and logs the roll",
	}
}

// ReplayRollTool defines the MCP tool schema for replaying a roll.
func ReplayRollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "replay_roll",
		Description: "Re-evaluates a logged roll with its original seed",
	}
}

// ListRollsTool defines the MCP tool schema for the roll log.
func ListRollsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_rolls",
		Description: "Lists logged rolls, newest first",
	}
}

// NotationRulesTool defines the MCP tool schema for notation rules.
func NotationRulesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_notation_rules",
		Description: "Lists the shorthand rewrite rules dice expressions are read with",
	}
}

// RollExpressionHandler evaluates an expression on the roller.
func RollExpressionHandler(client rollv1.RollServiceClient) mcp.ToolHandlerFor[RollExpressionInput, RollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollExpressionInput) (*mcp.CallToolResult, RollResult, error) {
		if client == nil {
			return nil, RollResult{}, errors.New("roll client is not configured")
		}
		if strings.TrimSpace(input.Expression) == "" {
			return nil, RollResult{}, errors.New("expression is required")
		}
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, RollResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		callCtx, cancel, callMeta, err := startCall(ctx, invocationID, input.Locale)
		if err != nil {
			return nil, RollResult{}, fmt.Errorf("create request metadata: %w", err)
		}
		defer cancel()

		req := &rollv1.RollRequest{Expression: input.Expression}
		if input.Rng != nil {
			req.Seed = strings.TrimSpace(input.Rng.Seed)
			req.RollMode = input.Rng.RollMode
		}

		var header metadata.MD
		response, err := client.Roll(callCtx, req, grpc.Header(&header))
		if err != nil {
			return nil, RollResult{}, callError("roll", err)
		}
		if response == nil || response.Roll == nil {
			return nil, RollResult{}, errors.New("roll response is missing")
		}
		return CallToolResultWithMetadata(MergeResponseMetadata(callMeta, header)), rollResultFromMessage(response.Roll), nil
	}
}

// ReplayRollHandler replays a logged roll.
func ReplayRollHandler(client rollv1.RollServiceClient) mcp.ToolHandlerFor[ReplayRollInput, RollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ReplayRollInput) (*mcp.CallToolResult, RollResult, error) {
		if client == nil {
			return nil, RollResult{}, errors.New("roll client is not configured")
		}
		rollID := strings.TrimSpace(input.RollID)
		if rollID == "" {
			return nil, RollResult{}, errors.New("roll_id is required")
		}
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, RollResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		callCtx, cancel, callMeta, err := startCall(ctx, invocationID, input.Locale)
		if err != nil {
			return nil, RollResult{}, fmt.Errorf("create request metadata: %w", err)
		}
		defer cancel()

		var header metadata.MD
		response, err := client.Replay(callCtx, &rollv1.ReplayRequest{RollID: rollID}, grpc.Header(&header))
		if err != nil {
			return nil, RollResult{}, callError("replay", err)
		}
		if response == nil || response.Roll == nil {
			return nil, RollResult{}, errors.New("replay response is missing")
		}
		return CallToolResultWithMetadata(MergeResponseMetadata(callMeta, header)), rollResultFromMessage(response.Roll), nil
	}
}

// ListRollsHandler pages through the roll log.
func ListRollsHandler(client rollv1.RollServiceClient) mcp.ToolHandlerFor[ListRollsInput, ListRollsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListRollsInput) (*mcp.CallToolResult, ListRollsResult, error) {
		if client == nil {
			return nil, ListRollsResult{}, errors.New("roll client is not configured")
		}
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, ListRollsResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		callCtx, cancel, callMeta, err := startCall(ctx, invocationID, "")
		if err != nil {
			return nil, ListRollsResult{}, fmt.Errorf("create request metadata: %w", err)
		}
		defer cancel()

		var header metadata.MD
		response, err := client.ListRolls(callCtx, &rollv1.ListRollsRequest{
			PageSize:  int32(input.PageSize),
			PageToken: input.PageToken,
		}, grpc.Header(&header))
		if err != nil {
			return nil, ListRollsResult{}, callError("list rolls", err)
		}
		if response == nil {
			return nil, ListRollsResult{}, errors.New("list rolls response is missing")
		}
		return CallToolResultWithMetadata(MergeResponseMetadata(callMeta, header)), listRollsResultFromMessage(response), nil
	}
}

// NotationRulesHandler lists the roller's notation rules.
func NotationRulesHandler(client rollv1.RollServiceClient) mcp.ToolHandlerFor[NotationRulesInput, NotationRulesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NotationRulesInput) (*mcp.CallToolResult, NotationRulesResult, error) {
		if client == nil {
			return nil, NotationRulesResult{}, errors.New("roll client is not configured")
		}
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, NotationRulesResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		callCtx, cancel, callMeta, err := startCall(ctx, invocationID, "")
		if err != nil {
			return nil, NotationRulesResult{}, fmt.Errorf("create request metadata: %w", err)
		}
		defer cancel()

		var header metadata.MD
		response, err := client.ListRules(callCtx, &rollv1.ListRulesRequest{}, grpc.Header(&header))
		if err != nil {
			return nil, NotationRulesResult{}, callError("list notation rules", err)
		}
		if response == nil {
			return nil, NotationRulesResult{}, errors.New("list notation rules response is missing")
		}
		return CallToolResultWithMetadata(MergeResponseMetadata(callMeta, header)), notationRulesFromMessage(response), nil
	}
}

// callError prefers the roller's localized message over the raw status text
// and keeps the roller's error code in the chain.
func callError(op string, err error) error {
	appErr, userMessage := apperrors.FromGRPCStatus(err)
	cause := err
	if appErr != nil {
		appErr.Cause = err
		cause = appErr
	}
	if userMessage != "" {
		return fmt.Errorf("%s failed: %s: %w", op, userMessage, cause)
	}
	return fmt.Errorf("%s failed: %w", op, cause)
}

func rollResultFromMessage(roll *rollv1.Roll) RollResult {
	result := RollResult{
		ID:          roll.ID,
		Expression:  roll.Expression,
		Canonical:   roll.Canonical,
		Detail:      roll.Detail,
		Value:       roll.Value,
		ValueIsText: roll.ValueIsText,
		Rng: RngResult{
			SeedUsed:   roll.Seed,
			SeedSource: roll.SeedSource,
			RollMode:   roll.RollMode,
		},
		ReplayOf:  roll.ReplayOf,
		CreatedAt: formatTimestamp(roll.CreatedAt),
	}
	for _, entry := range roll.Rolls {
		result.Rolls = append(result.Rolls, RollEntryResult{
			Function: entry.Function,
			Args:     entry.Args,
			Values:   entry.Values,
			Result:   entry.Result,
		})
	}
	return result
}

func listRollsResultFromMessage(response *rollv1.ListRollsResponse) ListRollsResult {
	result := ListRollsResult{
		Rolls:         make([]RollResult, 0, len(response.Rolls)),
		NextPageToken: response.NextPageToken,
	}
	for _, roll := range response.Rolls {
		if roll == nil {
			continue
		}
		result.Rolls = append(result.Rolls, rollResultFromMessage(roll))
	}
	return result
}

func notationRulesFromMessage(response *rollv1.ListRulesResponse) NotationRulesResult {
	result := NotationRulesResult{Rules: make([]NotationRule, 0, len(response.Rules))}
	for _, rule := range response.Rules {
		if rule == nil {
			continue
		}
		result.Rules = append(result.Rules, NotationRule{
			Name:        rule.Name,
			Pattern:     rule.Pattern,
			Replacement: rule.Replacement,
			Samples:     rule.Samples,
		})
	}
	return result
}
