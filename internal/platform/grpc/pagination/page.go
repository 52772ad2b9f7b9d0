// Package pagination normalizes list paging parameters and encodes the opaque
// cursor tokens list responses hand back to callers.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidCursor reports a page token this package did not produce.
var ErrInvalidCursor = errors.New("invalid page cursor")

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize returns value, or cfg.Default when value is not positive,
// capped at cfg.Max. The result is at least 1.
func ClampPageSize(value int32, cfg PageSizeConfig) int {
	size := int(value)
	if size <= 0 {
		size = cfg.Default
	}
	if cfg.Max > 0 && size > cfg.Max {
		size = cfg.Max
	}
	return max(size, 1)
}

// EncodeCursor returns the token for a page that continues after the row
// with position before in kind's ordering.
func EncodeCursor(kind string, before int64) string {
	raw := kind + ":" + strconv.FormatInt(before, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. Tokens minted for another kind are
// rejected.
func DecodeCursor(kind, token string) (int64, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return 0, ErrInvalidCursor
	}
	gotKind, position, ok := strings.Cut(string(data), ":")
	if !ok || gotKind != kind {
		return 0, ErrInvalidCursor
	}
	before, err := strconv.ParseInt(position, 10, 64)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	return before, nil
}
