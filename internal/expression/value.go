package expression

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind classifies values and function parameters.
type Kind int

const (
	// KindAny accepts numbers and text.
	KindAny Kind = iota
	// KindNumber is an arbitrary-precision decimal.
	KindNumber
	// KindText is a descriptive or literal string.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "any"
	}
}

// Value is the result of evaluating a node: a decimal number or a text.
type Value struct {
	kind Kind
	num  decimal.Decimal
	text string
}

// Number wraps a decimal.
func Number(d decimal.Decimal) Value {
	return Value{kind: KindNumber, num: d}
}

// Int wraps an integer.
func Int(n int64) Value {
	return Number(decimal.NewFromInt(n))
}

// Text wraps a string.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Bool maps true and false to 1 and 0.
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Kind reports whether v holds a number or a text. The zero Value is the
// number zero.
func (v Value) Kind() Kind {
	if v.kind == KindText {
		return KindText
	}
	return KindNumber
}

// IsText reports whether v holds a text.
func (v Value) IsText() bool {
	return v.kind == KindText
}

// Decimal returns the numeric value. Text that spells a number converts;
// any other text is an error.
func (v Value) Decimal() (decimal.Decimal, error) {
	if v.kind != KindText {
		return v.num, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.text))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", v.text)
	}
	return d, nil
}

// String renders the value for display: numbers in plain decimal notation,
// text verbatim.
func (v Value) String() string {
	if v.kind == KindText {
		return v.text
	}
	return v.num.String()
}

// Literal renders the value as source text the parser reads back.
func (v Value) Literal() string {
	if v.kind != KindText {
		return v.num.String()
	}
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range v.text {
		switch r {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Truthy reports whether v counts as true in a condition: a non-zero number,
// or a text that is neither empty nor "false".
func (v Value) Truthy() bool {
	if v.kind == KindText {
		return v.text != "" && !strings.EqualFold(v.text, "false")
	}
	return !v.num.IsZero()
}

// Equal compares two values. Numbers compare numerically; anything involving
// text compares the displayed forms.
func (v Value) Equal(other Value) bool {
	if v.kind != KindText && other.kind != KindText {
		return v.num.Equal(other.num)
	}
	return v.String() == other.String()
}

func (v Value) compare(other Value) int {
	if v.kind != KindText && other.kind != KindText {
		return v.num.Cmp(other.num)
	}
	return strings.Compare(v.String(), other.String())
}
