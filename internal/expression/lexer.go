package expression

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokString
	tokIdent
	tokLParen
	tokRParen
	tokComma
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokCaret
	tokEq
	tokNeq
	tokLess
	tokLessEq
	tokGreater
	tokGreaterEq
	tokAnd
	tokOr
	tokNot
	tokAssign
)

var operatorText = map[tokenType]string{
	tokPlus:      "+",
	tokMinus:     "-",
	tokStar:      "*",
	tokSlash:     "/",
	tokPercent:   "%",
	tokCaret:     "^",
	tokEq:        "==",
	tokNeq:       "!=",
	tokLess:      "<",
	tokLessEq:    "<=",
	tokGreater:   ">",
	tokGreaterEq: ">=",
	tokAnd:       "&&",
	tokOr:        "||",
	tokNot:       "!",
	tokAssign:    "=",
}

type token struct {
	typ   tokenType
	text  string
	pos   int
	value Value
}

func (t token) describe() string {
	switch t.typ {
	case tokEOF:
		return "end of input"
	case tokString:
		return "string " + t.text
	default:
		return "'" + t.text + "'"
	}
}

type lexer struct {
	src  string
	pos  int
	toks []token
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src}
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		lx.toks = append(lx.toks, tok)
		if tok.typ == tokEOF {
			return lx.toks, nil
		}
	}
}

func (lx *lexer) errorf(pos int, msg string) error {
	return &SyntaxError{Text: lx.src, Pos: pos, Msg: msg}
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.src) && isSpace(lx.src[lx.pos]) {
		lx.pos++
	}
	start := lx.pos
	if start >= len(lx.src) {
		return token{typ: tokEOF, pos: start}, nil
	}

	c := lx.src[start]
	switch {
	case isDigit(c) || (c == '.' && start+1 < len(lx.src) && isDigit(lx.src[start+1])):
		return lx.number()
	case isIdentStart(c):
		for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
			lx.pos++
		}
		return token{typ: tokIdent, text: lx.src[start:lx.pos], pos: start}, nil
	case c == '\'' || c == '"':
		return lx.str()
	}

	two := ""
	if start+1 < len(lx.src) {
		two = lx.src[start : start+2]
	}
	switch two {
	case "==":
		return lx.op(tokEq, 2), nil
	case "!=":
		return lx.op(tokNeq, 2), nil
	case "<=":
		return lx.op(tokLessEq, 2), nil
	case ">=":
		return lx.op(tokGreaterEq, 2), nil
	case "&&":
		return lx.op(tokAnd, 2), nil
	case "||":
		return lx.op(tokOr, 2), nil
	}

	switch c {
	case '(':
		return lx.op(tokLParen, 1), nil
	case ')':
		return lx.op(tokRParen, 1), nil
	case ',':
		return lx.op(tokComma, 1), nil
	case '+':
		return lx.op(tokPlus, 1), nil
	case '-':
		return lx.op(tokMinus, 1), nil
	case '*':
		return lx.op(tokStar, 1), nil
	case '/':
		return lx.op(tokSlash, 1), nil
	case '%':
		return lx.op(tokPercent, 1), nil
	case '^':
		return lx.op(tokCaret, 1), nil
	case '<':
		return lx.op(tokLess, 1), nil
	case '>':
		return lx.op(tokGreater, 1), nil
	case '!':
		return lx.op(tokNot, 1), nil
	case '=':
		return lx.op(tokAssign, 1), nil
	}
	return token{}, lx.errorf(start, "unexpected character "+quoteRune(lx.src[start:]))
}

func (lx *lexer) op(typ tokenType, width int) token {
	tok := token{typ: typ, text: lx.src[lx.pos : lx.pos+width], pos: lx.pos}
	lx.pos += width
	return tok
}

func (lx *lexer) number() (token, error) {
	start := lx.pos
	if strings.HasPrefix(lx.src[start:], "0x") || strings.HasPrefix(lx.src[start:], "0X") {
		lx.pos += 2
		digits := lx.pos
		for lx.pos < len(lx.src) && isHexDigit(lx.src[lx.pos]) {
			lx.pos++
		}
		if lx.pos == digits {
			return token{}, lx.errorf(start, "hexadecimal literal has no digits")
		}
		n, ok := new(big.Int).SetString(lx.src[digits:lx.pos], 16)
		if !ok {
			return token{}, lx.errorf(start, "invalid hexadecimal literal")
		}
		text := lx.src[start:lx.pos]
		return token{typ: tokNumber, text: text, pos: start, value: Number(decimal.NewFromBigInt(n, 0))}, nil
	}

	for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
		lx.pos++
	}
	if lx.pos+1 < len(lx.src) && lx.src[lx.pos] == '.' && isDigit(lx.src[lx.pos+1]) {
		lx.pos++
		for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			lx.pos++
		}
	}
	text := lx.src[start:lx.pos]
	d, err := decimal.NewFromString(text)
	if err != nil {
		return token{}, lx.errorf(start, "invalid number "+text)
	}
	return token{typ: tokNumber, text: text, pos: start, value: Number(d)}, nil
}

func (lx *lexer) str() (token, error) {
	start := lx.pos
	quote := lx.src[start]
	lx.pos++
	var b strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == quote:
			lx.pos++
			return token{typ: tokString, text: lx.src[start:lx.pos], pos: start, value: Text(b.String())}, nil
		case c == '\\' && lx.pos+1 < len(lx.src):
			lx.pos++
			switch esc := lx.src[lx.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(esc)
			}
			lx.pos++
		default:
			b.WriteByte(c)
			lx.pos++
		}
	}
	return token{}, lx.errorf(start, "unterminated string literal")
}

func quoteRune(s string) string {
	for _, r := range s {
		return "'" + string(r) + "'"
	}
	return "''"
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.'
}
