package expression

import (
	"strings"
)

// Transformer rewrites source text before it is tokenized.
type Transformer interface {
	Transform(text string) string
}

// Parser turns text into expression trees. It holds no per-parse state, so
// one Parser may be shared once built.
type Parser struct {
	catalog      *Catalog
	transformers []Transformer
}

// NewParser returns a parser that resolves calls against catalog and runs
// transformers, in order, before parsing.
func NewParser(catalog *Catalog, transformers ...Transformer) *Parser {
	return &Parser{catalog: catalog, transformers: transformers}
}

// Catalog returns the functions calls resolve against.
func (p *Parser) Catalog() *Catalog {
	return p.catalog
}

// Rewrite applies every transformer to text.
func (p *Parser) Rewrite(text string) string {
	for _, t := range p.transformers {
		text = t.Transform(text)
	}
	return text
}

// Parse rewrites text and parses the result.
func (p *Parser) Parse(text string) (*Expression, error) {
	return p.ParseCanonical(p.Rewrite(text))
}

// ParseCanonical parses text without running the transformers.
func (p *Parser) ParseCanonical(text string) (*Expression, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	if toks[0].typ == tokEOF {
		return nil, &SyntaxError{Text: text, Pos: 0, Msg: "empty expression"}
	}
	s := &parseState{catalog: p.catalog, src: text, toks: toks}
	root, err := s.expr(0)
	if err != nil {
		return nil, err
	}
	if tok := s.peek(); tok.typ != tokEOF {
		return nil, s.errorf(tok, "unexpected "+tok.describe())
	}
	return &Expression{root: root, text: text}, nil
}

type parseState struct {
	catalog *Catalog
	src     string
	toks    []token
	pos     int
}

func (s *parseState) peek() token {
	return s.toks[s.pos]
}

func (s *parseState) advance() token {
	tok := s.toks[s.pos]
	if tok.typ != tokEOF {
		s.pos++
	}
	return tok
}

func (s *parseState) errorf(tok token, msg string) error {
	return &SyntaxError{Text: s.src, Pos: tok.pos, Msg: msg}
}

func (s *parseState) expect(typ tokenType, what string) (token, error) {
	tok := s.peek()
	if tok.typ != typ {
		return token{}, s.errorf(tok, "expected "+what+", found "+tok.describe())
	}
	return s.advance(), nil
}

func infix(tok token) (string, int, bool) {
	if tok.typ == tokAssign {
		return "=", precAssign, true
	}
	op, ok := operatorText[tok.typ]
	if !ok {
		return "", 0, false
	}
	prec, ok := binaryPrecedence[op]
	return op, prec, ok
}

func (s *parseState) expr(minPrec int) (Node, error) {
	left, err := s.prefix()
	if err != nil {
		return nil, err
	}
	for {
		tok := s.peek()
		op, prec, ok := infix(tok)
		if !ok || prec < minPrec {
			return left, nil
		}
		s.advance()
		next := prec + 1
		if rightAssociative(op) {
			next = prec
		}
		right, err := s.expr(next)
		if err != nil {
			return nil, err
		}
		if op == "=" {
			v, ok := left.(*VariableNode)
			if !ok {
				return nil, s.errorf(tok, "left side of assignment must be a name")
			}
			left = &AssignNode{Name: v.Name, Value: right}
			continue
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (s *parseState) prefix() (Node, error) {
	tok := s.advance()
	switch tok.typ {
	case tokNumber, tokString:
		return NewLiteral(tok.value), nil
	case tokMinus, tokPlus, tokNot:
		operand, err := s.expr(precUnary)
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: tok.text, Operand: operand}, nil
	case tokLParen:
		inner, err := s.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := s.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		if s.peek().typ == tokLParen {
			return s.call(tok)
		}
		switch strings.ToLower(tok.text) {
		case "true":
			return NewLiteral(Bool(true)), nil
		case "false":
			return NewLiteral(Bool(false)), nil
		}
		return &VariableNode{Name: tok.text}, nil
	case tokEOF:
		return nil, s.errorf(tok, "unexpected end of input")
	}
	return nil, s.errorf(tok, "unexpected "+tok.describe())
}

func (s *parseState) call(name token) (Node, error) {
	fn, ok := s.catalog.Lookup(name.text)
	if !ok {
		return nil, &UnknownNameError{Kind: NameFunction, Name: name.text}
	}
	s.advance() // (
	var args []Node
	if s.peek().typ != tokRParen {
		for {
			arg, err := s.expr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if s.peek().typ != tokComma {
				break
			}
			s.advance()
		}
	}
	if _, err := s.expect(tokRParen, "')' or ','"); err != nil {
		return nil, err
	}
	if err := fn.Signature().checkArity(len(args)); err != nil {
		return nil, err
	}
	return &CallNode{Name: name.text, Args: args, fn: fn}, nil
}

// Expression is a parsed tree together with the text it came from.
type Expression struct {
	root Node
	text string
}

// NewExpression wraps an already built tree.
func NewExpression(root Node) *Expression {
	return &Expression{root: root, text: root.Format()}
}

// Root returns the top node.
func (e *Expression) Root() Node { return e.root }

// Text returns the canonical text the tree was parsed from.
func (e *Expression) Text() string { return e.text }

// Format renders the tree.
func (e *Expression) Format() string { return e.root.Format() }

// Evaluate computes the value of the tree.
func (e *Expression) Evaluate(env *Env) (Value, error) {
	return e.root.Evaluate(env)
}

// Deterministic returns the tree with random numeric calls replaced by the
// values they produced. Every such call runs exactly once.
func (e *Expression) Deterministic(env *Env) (*Expression, error) {
	root, err := e.root.Deterministic(env)
	if err != nil {
		return nil, err
	}
	return &Expression{root: root, text: e.text}, nil
}
