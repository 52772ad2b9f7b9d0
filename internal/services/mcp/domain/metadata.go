package domain

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc/metadata"

	grpcmeta "github.com/louisbranch/dicenotation/internal/platform/grpc/metadata"
	"github.com/louisbranch/dicenotation/internal/platform/id"
	"github.com/louisbranch/dicenotation/internal/platform/timeouts"
)

// grpcCallTimeout caps a single roller call made by a tool or resource.
const grpcCallTimeout = timeouts.GRPCRequest

// resourceListPageSize is the number of rolls a roll log resource read shows.
const resourceListPageSize = 20

// ToolCallMetadata carries correlation identifiers for MCP tool calls.
type ToolCallMetadata struct {
	RequestID    string
	InvocationID string
}

// NewInvocationID generates an invocation identifier for a tool call.
func NewInvocationID() (string, error) {
	return id.NewID()
}

// NewRequestID generates a request identifier for a gRPC call.
func NewRequestID() (string, error) {
	return id.NewID()
}

// NewOutgoingContext attaches request metadata to a context.
func NewOutgoingContext(ctx context.Context, invocationID string) (context.Context, ToolCallMetadata, error) {
	requestID, err := NewRequestID()
	if err != nil {
		return nil, ToolCallMetadata{}, err
	}

	callCtx := metadata.AppendToOutgoingContext(ctx, grpcmeta.RequestIDHeader, requestID)
	if invocationID != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, grpcmeta.InvocationIDHeader, invocationID)
	}
	return callCtx, ToolCallMetadata{RequestID: requestID, InvocationID: invocationID}, nil
}

// WithLocale asks the roller to localize error messages for locale.
func WithLocale(ctx context.Context, locale string) context.Context {
	if !grpcmeta.IsPrintableASCII(locale) {
		return ctx
	}
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, grpcmeta.LocaleHeader, locale)
}

// MergeResponseMetadata overlays response headers on top of sent metadata.
func MergeResponseMetadata(sent ToolCallMetadata, header metadata.MD) ToolCallMetadata {
	requestID := grpcmeta.FirstMetadataValue(header, grpcmeta.RequestIDHeader)
	if requestID == "" {
		requestID = sent.RequestID
	}
	invocationID := grpcmeta.FirstMetadataValue(header, grpcmeta.InvocationIDHeader)
	if invocationID == "" {
		invocationID = sent.InvocationID
	}
	return ToolCallMetadata{RequestID: requestID, InvocationID: invocationID}
}

// CallToolResultWithMetadata builds a tool result with correlation metadata.
func CallToolResultWithMetadata(meta ToolCallMetadata) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Meta: map[string]any{
			grpcmeta.RequestIDHeader: meta.RequestID,
		},
	}
	if meta.InvocationID != "" {
		result.Meta[grpcmeta.InvocationIDHeader] = meta.InvocationID
	}
	return result
}

// startCall bounds a roller call and tags it with fresh correlation IDs.
func startCall(ctx context.Context, invocationID, locale string) (context.Context, context.CancelFunc, ToolCallMetadata, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
	callCtx, meta, err := NewOutgoingContext(runCtx, invocationID)
	if err != nil {
		cancel()
		return nil, nil, ToolCallMetadata{}, err
	}
	return WithLocale(callCtx, locale), cancel, meta, nil
}

func formatTimestamp(value string) string {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	return parsed.UTC().Format(time.RFC3339)
}
