package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/dicenotation/internal/services/roller/api/grpc/rollv1"
)

const (
	rollURIPrefix    = "roll://"
	recentRollsURI   = "rolls://recent"
	notationRulesURI = "notation://rules"
	jsonResourceMIME = "application/json"
)

// RollResourceTemplate describes a single logged roll.
func RollResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "roll",
		Title:       "Roll",
		Description: "A logged roll with its seed and dice. URI format: roll://{roll_id}",
		MIMEType:    jsonResourceMIME,
		URITemplate: rollURIPrefix + "{roll_id}",
	}
}

// RecentRollsResource describes the newest page of the roll log.
func RecentRollsResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "recent_rolls",
		Title:       "Recent Rolls",
		Description: "The most recent logged rolls, newest first",
		MIMEType:    jsonResourceMIME,
		URI:         recentRollsURI,
	}
}

// NotationRulesResource describes the notation rule table.
func NotationRulesResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "notation_rules",
		Title:       "Notation Rules",
		Description: "Shorthand rewrite rules in the order they are applied",
		MIMEType:    jsonResourceMIME,
		URI:         notationRulesURI,
	}
}

// RollResourceHandler reads roll://{roll_id}.
func RollResourceHandler(client rollv1.RollServiceClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, errors.New("roll client is not configured")
		}
		uri, err := requestURI(req, "roll ID is required; use URI format roll://{roll_id}")
		if err != nil {
			return nil, err
		}
		rollID, err := parseRollIDFromURI(uri)
		if err != nil {
			return nil, err
		}

		callCtx, cancel, _, err := startCall(ctx, "", "")
		if err != nil {
			return nil, fmt.Errorf("create request metadata: %w", err)
		}
		defer cancel()

		response, err := client.GetRoll(callCtx, &rollv1.GetRollRequest{RollID: rollID})
		if err != nil {
			return nil, callError("get roll", err)
		}
		if response == nil || response.Roll == nil {
			return nil, errors.New("get roll response is missing")
		}
		return jsonResource(uri, rollResultFromMessage(response.Roll))
	}
}

// RecentRollsResourceHandler reads rolls://recent.
func RecentRollsResourceHandler(client rollv1.RollServiceClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, errors.New("roll client is not configured")
		}
		uri, err := requestURI(req, "resource URI is required")
		if err != nil {
			return nil, err
		}

		callCtx, cancel, _, err := startCall(ctx, "", "")
		if err != nil {
			return nil, fmt.Errorf("create request metadata: %w", err)
		}
		defer cancel()

		response, err := client.ListRolls(callCtx, &rollv1.ListRollsRequest{PageSize: resourceListPageSize})
		if err != nil {
			return nil, callError("list rolls", err)
		}
		if response == nil {
			return nil, errors.New("list rolls response is missing")
		}
		return jsonResource(uri, listRollsResultFromMessage(response))
	}
}

// NotationRulesResourceHandler reads notation://rules.
func NotationRulesResourceHandler(client rollv1.RollServiceClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, errors.New("roll client is not configured")
		}
		uri, err := requestURI(req, "resource URI is required")
		if err != nil {
			return nil, err
		}

		callCtx, cancel, _, err := startCall(ctx, "", "")
		if err != nil {
			return nil, fmt.Errorf("create request metadata: %w", err)
		}
		defer cancel()

		response, err := client.ListRules(callCtx, &rollv1.ListRulesRequest{})
		if err != nil {
			return nil, callError("list notation rules", err)
		}
		if response == nil {
			return nil, errors.New("list notation rules response is missing")
		}
		return jsonResource(uri, notationRulesFromMessage(response))
	}
}

func requestURI(req *mcp.ReadResourceRequest, missing string) (string, error) {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return "", errors.New(missing)
	}
	return req.Params.URI, nil
}

// parseRollIDFromURI extracts the roll ID from roll://{roll_id}.
func parseRollIDFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, rollURIPrefix)
	if !ok {
		return "", fmt.Errorf("URI %q does not start with %s", uri, rollURIPrefix)
	}
	rollID := strings.TrimSpace(rest)
	if rollID == "" || strings.Contains(rollID, "/") {
		return "", fmt.Errorf("URI %q does not name a roll", uri)
	}
	return rollID, nil
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: jsonResourceMIME,
				Text:     string(data),
			},
		},
	}, nil
}
