// Package literal hides quoted string literals from text rewriting.
//
// Remove swaps every quoted span for an opaque placeholder made of
// private-use runes, which no rewrite rule can match, and Restore puts the
// original spans back.
package literal

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	openMark  = '\uE000'
	closeMark = '\uE001'
	digitBase = '\uE010'
)

// Table holds the literal spans removed from a text, by placeholder index.
type Table []string

// Remove replaces each quoted span ('…' or "…", backslash escapes honored)
// with a placeholder. An unterminated quote is left in place so the parser
// can report it. Marker runes already present in text are stored in the
// table like literals, so Restore hands them back unchanged.
func Remove(text string) (string, Table) {
	if !strings.ContainsAny(text, `'"`) && !strings.ContainsFunc(text, isMark) {
		return text, nil
	}

	var (
		out   strings.Builder
		table Table
	)
	out.Grow(len(text))
	for i := 0; i < len(text); {
		c := text[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(text[i:])
			if isMark(r) {
				out.WriteString(placeholder(len(table)))
				table = append(table, text[i:i+size])
			} else {
				out.WriteString(text[i : i+size])
			}
			i += size
			continue
		}
		if c != '\'' && c != '"' {
			out.WriteByte(c)
			i++
			continue
		}
		end := closingQuote(text, i)
		if end < 0 {
			out.WriteString(text[i:])
			break
		}
		out.WriteString(placeholder(len(table)))
		table = append(table, text[i:end+1])
		i = end + 1
	}
	return out.String(), table
}

func isMark(r rune) bool {
	return r == openMark || r == closeMark || (r >= digitBase && r <= digitBase+9)
}

// Restore puts literal spans back in place of their placeholders.
func Restore(text string, table Table) string {
	if len(table) == 0 {
		return text
	}
	var out strings.Builder
	out.Grow(len(text))
	for {
		start := strings.IndexRune(text, openMark)
		if start < 0 {
			out.WriteString(text)
			return out.String()
		}
		out.WriteString(text[:start])
		rest := text[start+len(string(openMark)):]
		end := strings.IndexRune(rest, closeMark)
		if end < 0 {
			out.WriteString(text[start:])
			return out.String()
		}
		idx, ok := decodeIndex(rest[:end])
		if !ok || idx >= len(table) {
			out.WriteString(text[start : start+len(string(openMark))+end+len(string(closeMark))])
		} else {
			out.WriteString(table[idx])
		}
		text = rest[end+len(string(closeMark)):]
	}
}

func closingQuote(text string, open int) int {
	quote := text[open]
	for i := open + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

func placeholder(idx int) string {
	var b strings.Builder
	b.WriteRune(openMark)
	for _, d := range strconv.Itoa(idx) {
		b.WriteRune(digitBase + (d - '0'))
	}
	b.WriteRune(closeMark)
	return b.String()
}

func decodeIndex(encoded string) (int, bool) {
	if encoded == "" {
		return 0, false
	}
	idx := 0
	for _, r := range encoded {
		if r < digitBase || r > digitBase+9 {
			return 0, false
		}
		idx = idx*10 + int(r-digitBase)
	}
	return idx, true
}
