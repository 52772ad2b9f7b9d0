// Package rollv1 is the dicenotation.v1.RollService contract: its messages,
// service descriptor, server interface and client.
//
// Messages travel as google.protobuf.Struct. Each message type has a JSON
// shape; the Struct carries that shape field for field. 64-bit seeds are
// decimal strings so they survive the Struct's double-precision numbers.
package rollv1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// RollRequest asks the service to evaluate one expression.
type RollRequest struct {
	Expression string `json:"expression"`
	// Seed is an optional decimal seed, honored for REPLAY rolls.
	Seed     string `json:"seed,omitempty"`
	RollMode string `json:"roll_mode,omitempty"`
}

// ReplayRequest asks the service to re-evaluate a logged roll.
type ReplayRequest struct {
	RollID string `json:"roll_id"`
}

// GetRollRequest reads one logged roll.
type GetRollRequest struct {
	RollID string `json:"roll_id"`
}

// ListRollsRequest reads one page of the roll log.
type ListRollsRequest struct {
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

// ListRulesRequest reads the notation table.
type ListRulesRequest struct{}

// RollEntry is one dice function call made while rolling.
type RollEntry struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
	Values   []int    `json:"values"`
	Result   string   `json:"result"`
}

// Roll is one logged evaluation.
type Roll struct {
	ID          string      `json:"id"`
	Expression  string      `json:"expression"`
	Canonical   string      `json:"canonical"`
	Detail      string      `json:"detail"`
	Value       string      `json:"value"`
	ValueIsText bool        `json:"value_is_text,omitempty"`
	Rolls       []RollEntry `json:"rolls"`
	Seed        string      `json:"seed"`
	SeedSource  string      `json:"seed_source"`
	RollMode    string      `json:"roll_mode"`
	ReplayOf    string      `json:"replay_of,omitempty"`
	// CreatedAt is RFC 3339 in UTC.
	CreatedAt string `json:"created_at"`
}

// RollResponse carries one roll.
type RollResponse struct {
	Roll *Roll `json:"roll"`
}

// ListRollsResponse carries one page of rolls, newest first.
type ListRollsResponse struct {
	Rolls         []*Roll `json:"rolls"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// Rule is one notation rewrite rule.
type Rule struct {
	Name        string   `json:"name"`
	Pattern     string   `json:"pattern"`
	Replacement string   `json:"replacement"`
	Samples     []string `json:"samples,omitempty"`
}

// ListRulesResponse carries the notation table in order.
type ListRulesResponse struct {
	Rules []*Rule `json:"rules"`
}

// ToStruct encodes a message as a Struct.
func ToStruct(msg any) (*structpb.Struct, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	return out, nil
}

// FromStruct decodes a Struct into msg, which must be a pointer. A nil
// Struct decodes as an empty message.
func FromStruct(in *structpb.Struct, msg any) error {
	if in == nil {
		return nil
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}
