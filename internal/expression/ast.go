package expression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Binding strength of each construct, used both to parse and to decide where
// Format needs parentheses.
const (
	precAssign         = 10
	precOr             = 20
	precAnd            = 30
	precEquality       = 40
	precCompare        = 50
	precAdditive       = 60
	precMultiplicative = 70
	precUnary          = 80
	precPower          = 90
	precAtom           = 100
)

var binaryPrecedence = map[string]int{
	"||": precOr,
	"&&": precAnd,
	"==": precEquality,
	"!=": precEquality,
	"<":  precCompare,
	"<=": precCompare,
	">":  precCompare,
	">=": precCompare,
	"+":  precAdditive,
	"-":  precAdditive,
	"*":  precMultiplicative,
	"/":  precMultiplicative,
	"%":  precMultiplicative,
	"^":  precPower,
}

func rightAssociative(op string) bool {
	return op == "^" || op == "="
}

// Node is one element of a parsed expression tree.
type Node interface {
	// Evaluate computes the node's value.
	Evaluate(env *Env) (Value, error)
	// Deterministic returns an equivalent node in which every random call
	// that yields a number has been replaced by the literal it produced.
	Deterministic(env *Env) (Node, error)
	// Format renders the node as canonical text.
	Format() string

	write(b *strings.Builder)
	precedence() int
}

func formatNode(n Node) string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

// LiteralNode is a constant.
type LiteralNode struct {
	Value Value
}

// NewLiteral returns a node holding v.
func NewLiteral(v Value) *LiteralNode {
	return &LiteralNode{Value: v}
}

func (n *LiteralNode) Evaluate(*Env) (Value, error)      { return n.Value, nil }
func (n *LiteralNode) Deterministic(*Env) (Node, error) { return n, nil }
func (n *LiteralNode) Format() string                   { return formatNode(n) }
func (n *LiteralNode) write(b *strings.Builder)         { b.WriteString(n.Value.Literal()) }

func (n *LiteralNode) precedence() int {
	if !n.Value.IsText() && n.Value.num.IsNegative() {
		return precUnary
	}
	return precAtom
}

// VariableNode reads a named value.
type VariableNode struct {
	Name string
}

func (n *VariableNode) Evaluate(env *Env) (Value, error) {
	if env != nil && env.Vars != nil {
		if v, ok := env.Vars.Get(n.Name); ok {
			return v, nil
		}
	}
	return Value{}, &UnknownNameError{Kind: NameVariable, Name: n.Name}
}

func (n *VariableNode) Deterministic(*Env) (Node, error) { return n, nil }
func (n *VariableNode) Format() string                   { return formatNode(n) }
func (n *VariableNode) write(b *strings.Builder)         { b.WriteString(n.Name) }
func (n *VariableNode) precedence() int                  { return precAtom }

// AssignNode stores a value under a name and yields it.
type AssignNode struct {
	Name  string
	Value Node
}

func (n *AssignNode) Evaluate(env *Env) (Value, error) {
	v, err := n.Value.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	env.Vars.Set(n.Name, v)
	return v, nil
}

func (n *AssignNode) Deterministic(env *Env) (Node, error) {
	value, err := n.Value.Deterministic(env)
	if err != nil {
		return nil, err
	}
	return &AssignNode{Name: n.Name, Value: value}, nil
}

func (n *AssignNode) Format() string { return formatNode(n) }

func (n *AssignNode) write(b *strings.Builder) {
	b.WriteString(n.Name)
	b.WriteString(" = ")
	writeOperand(b, n.Value, n.Value.precedence() < precAssign)
}

func (n *AssignNode) precedence() int { return precAssign }

// UnaryNode applies a prefix operator: -, + or !.
type UnaryNode struct {
	Op      string
	Operand Node
}

func (n *UnaryNode) Evaluate(env *Env) (Value, error) {
	v, err := n.Operand.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "!":
		return Bool(!v.Truthy()), nil
	case "+":
		d, err := v.Decimal()
		if err != nil {
			return Value{}, operandError(n.Op, err)
		}
		return Number(d), nil
	default:
		d, err := v.Decimal()
		if err != nil {
			return Value{}, operandError(n.Op, err)
		}
		return Number(d.Neg()), nil
	}
}

func (n *UnaryNode) Deterministic(env *Env) (Node, error) {
	operand, err := n.Operand.Deterministic(env)
	if err != nil {
		return nil, err
	}
	return &UnaryNode{Op: n.Op, Operand: operand}, nil
}

func (n *UnaryNode) Format() string { return formatNode(n) }

func (n *UnaryNode) write(b *strings.Builder) {
	b.WriteString(n.Op)
	writeOperand(b, n.Operand, n.Operand.precedence() < precUnary)
}

func (n *UnaryNode) precedence() int { return precUnary }

// BinaryNode applies an infix operator.
type BinaryNode struct {
	Op          string
	Left, Right Node
}

func (n *BinaryNode) Evaluate(env *Env) (Value, error) {
	left, err := n.Left.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "&&":
		if !left.Truthy() {
			return Bool(false), nil
		}
		right, err := n.Right.Evaluate(env)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	case "||":
		if left.Truthy() {
			return Bool(true), nil
		}
		right, err := n.Right.Evaluate(env)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	}
	right, err := n.Right.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	return applyBinary(n.Op, left, right)
}

// Deterministic leaves the right operand of && and || underived when the left
// side already decides the result, so its dice are never rolled.
func (n *BinaryNode) Deterministic(env *Env) (Node, error) {
	left, err := n.Left.Deterministic(env)
	if err != nil {
		return nil, err
	}
	if n.Op == "&&" || n.Op == "||" {
		v, err := left.Evaluate(env)
		if err != nil {
			return nil, err
		}
		if v.Truthy() == (n.Op == "||") {
			return &BinaryNode{Op: n.Op, Left: left, Right: n.Right}, nil
		}
	}
	right, err := n.Right.Deterministic(env)
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: n.Op, Left: left, Right: right}, nil
}

func (n *BinaryNode) Format() string { return formatNode(n) }

func (n *BinaryNode) write(b *strings.Builder) {
	p := n.precedence()
	right := rightAssociative(n.Op)
	lp, rp := n.Left.precedence(), n.Right.precedence()
	writeOperand(b, n.Left, lp < p || (lp == p && right))
	b.WriteString(" ")
	b.WriteString(n.Op)
	b.WriteString(" ")
	writeOperand(b, n.Right, rp < p || (rp == p && !right))
}

func (n *BinaryNode) precedence() int { return binaryPrecedence[n.Op] }

// CallNode invokes a catalog function.
type CallNode struct {
	Name string
	Args []Node
	fn   Function
}

// Function returns the catalog entry the call resolved to.
func (n *CallNode) Function() Function { return n.fn }

func (n *CallNode) Evaluate(env *Env) (Value, error) {
	if br, ok := n.fn.(Brancher); ok {
		chosen, err := br.Branch(env, n.Args)
		if err != nil {
			return Value{}, err
		}
		return chosen.Evaluate(env)
	}
	return n.invoke(env)
}

func (n *CallNode) Deterministic(env *Env) (Node, error) {
	if br, ok := n.fn.(Brancher); ok {
		return br.Branch(env, n.Args)
	}
	args := make([]Node, len(n.Args))
	for i, arg := range n.Args {
		det, err := arg.Deterministic(env)
		if err != nil {
			return nil, err
		}
		args[i] = det
	}
	call := &CallNode{Name: n.Name, Args: args, fn: n.fn}
	sig := n.fn.Signature()
	if !sig.Random || sig.Returns == KindText {
		return call, nil
	}
	v, err := call.invoke(env)
	if err != nil {
		return nil, err
	}
	return NewLiteral(v), nil
}

func (n *CallNode) invoke(env *Env) (Value, error) {
	args := make([]Value, len(n.Args))
	for i, arg := range n.Args {
		v, err := arg.Evaluate(env)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	sig := n.fn.Signature()
	if err := sig.checkArgs(args); err != nil {
		return Value{}, err
	}
	v, err := n.fn.Call(env, args)
	if err != nil {
		var argErr *ArgumentError
		if errors.As(err, &argErr) {
			return Value{}, err
		}
		return Value{}, fmt.Errorf("%s: %w", n.Name, err)
	}
	return v, nil
}

func (n *CallNode) Format() string { return formatNode(n) }

func (n *CallNode) write(b *strings.Builder) {
	b.WriteString(n.Name)
	b.WriteByte('(')
	for i, arg := range n.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		arg.write(b)
	}
	b.WriteByte(')')
}

func (n *CallNode) precedence() int { return precAtom }

func writeOperand(b *strings.Builder, n Node, parens bool) {
	if parens {
		b.WriteByte('(')
	}
	n.write(b)
	if parens {
		b.WriteByte(')')
	}
}

func operandError(op string, err error) error {
	return &ArgumentError{Function: "operator " + op, Msg: "operand must be a number", Cause: err}
}

func applyBinary(op string, left, right Value) (Value, error) {
	switch op {
	case "==":
		return Bool(left.Equal(right)), nil
	case "!=":
		return Bool(!left.Equal(right)), nil
	case "<":
		return Bool(left.compare(right) < 0), nil
	case "<=":
		return Bool(left.compare(right) <= 0), nil
	case ">":
		return Bool(left.compare(right) > 0), nil
	case ">=":
		return Bool(left.compare(right) >= 0), nil
	case "+":
		if left.IsText() || right.IsText() {
			return Text(left.String() + right.String()), nil
		}
	}

	l, err := left.Decimal()
	if err != nil {
		return Value{}, operandError(op, err)
	}
	r, err := right.Decimal()
	if err != nil {
		return Value{}, operandError(op, err)
	}

	switch op {
	case "+":
		return Number(l.Add(r)), nil
	case "-":
		return Number(l.Sub(r)), nil
	case "*":
		return Number(l.Mul(r)), nil
	case "/":
		if r.IsZero() {
			return Value{}, ErrDivisionByZero
		}
		return Number(l.Div(r)), nil
	case "%":
		if r.IsZero() {
			return Value{}, ErrDivisionByZero
		}
		return Number(l.Mod(r)), nil
	case "^":
		if !r.IsInteger() {
			return Value{}, &ArgumentError{Function: "operator ^", Msg: "exponent must be a whole number"}
		}
		if l.IsZero() && r.IsNegative() {
			return Value{}, ErrDivisionByZero
		}
		if err := checkPower(l, r); err != nil {
			return Value{}, err
		}
		return Number(l.Pow(r)), nil
	}
	return Value{}, fmt.Errorf("unsupported operator %q", op)
}

const (
	maxExponent    = 1000
	maxPowerDigits = 10000
)

// checkPower rejects powers whose exponent or estimated result size is out
// of bounds.
func checkPower(base, exp decimal.Decimal) error {
	if exp.Abs().GreaterThan(decimal.NewFromInt(maxExponent)) {
		return &ArgumentError{Function: "operator ^", Msg: fmt.Sprintf("exponent must be between -%d and %d", maxExponent, maxExponent)}
	}
	if base.IsZero() {
		return nil
	}
	digits := int64(len(base.Abs().Coefficient().String())) + abs64(int64(base.Exponent()))
	if digits*exp.Abs().IntPart() > maxPowerDigits {
		return &ArgumentError{Function: "operator ^", Msg: fmt.Sprintf("result would exceed %d digits", maxPowerDigits)}
	}
	return nil
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
