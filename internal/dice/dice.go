// Package dice implements the dice functions the notation rewrites into.
//
// Every function draws from the roll context carried by the evaluation
// environment and commits one history entry per call.
package dice

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/louisbranch/dicenotation/internal/expression"
	"github.com/louisbranch/dicenotation/internal/rollctx"
)

// MaxDice caps how many dice a single call may roll.
const MaxDice = 10000

// MaxDraws caps how many dice a single call may draw when it rerolls or
// explodes.
const MaxDraws = 10 * MaxDice

// ErrInvalidDiceSpec indicates a die specification has invalid fields.
var ErrInvalidDiceSpec = errors.New("invalid dice specification")

// ErrTooManyDice indicates a call asked for more than MaxDice dice.
var ErrTooManyDice = fmt.Errorf("more than %d dice requested", MaxDice)

// ErrNoRollContext indicates a dice function ran outside an evaluation.
var ErrNoRollContext = errors.New("dice rolled without a roll context")

// Spec describes a die to roll and how many times to roll it.
type Spec struct {
	Count int
	Sides int
}

func (s Spec) String() string {
	return fmt.Sprintf("%dd%d", s.Count, s.Sides)
}

// Validate checks that the spec can be rolled: a non-negative count no
// larger than MaxDice and at least one side.
func (s Spec) Validate() error {
	if s.Count < 0 || s.Sides < 1 || s.Sides > math.MaxInt32 {
		return fmt.Errorf("%w: %s", ErrInvalidDiceSpec, s)
	}
	if s.Count > MaxDice {
		return fmt.Errorf("%w: %s", ErrTooManyDice, s)
	}
	return nil
}

// roll rolls every die of s in order.
func roll(rc *rollctx.Context, s Spec) []int {
	values := make([]int, s.Count)
	for i := range values {
		values[i] = rc.Die(s.Sides)
	}
	return values
}

// explodeDie rolls one die and keeps rolling and adding while it shows its
// highest face.
func (c *call) explodeDie(sides int) (int, error) {
	total := 0
	for {
		v, err := c.draw(sides)
		if err != nil {
			return 0, err
		}
		total += v
		if v != sides {
			return total, nil
		}
	}
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, sep)
}

// call is one invocation of a dice function.
type call struct {
	name string
	env  *expression.Env
	rc   *rollctx.Context
	args []expression.Value

	draws int
}

// draw rolls one die against the MaxDraws budget of the call.
func (c *call) draw(sides int) (int, error) {
	c.draws++
	if c.draws > MaxDraws {
		return 0, fmt.Errorf("%w: %s needed more than %d draws", ErrTooManyDice, c.name, MaxDraws)
	}
	return c.rc.Die(sides), nil
}

func (c *call) decimal(i int) (decimal.Decimal, error) {
	d, err := c.args[i].Decimal()
	if err != nil {
		return decimal.Zero, &expression.ArgumentError{Function: c.name, Msg: fmt.Sprintf("argument %d must be a number", i+1), Cause: err}
	}
	return d, nil
}

// whole reads argument i as a whole number.
func (c *call) whole(i int) (int, error) {
	d, err := c.decimal(i)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() || d.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, fmt.Errorf("%w: argument %d must be a whole number, got %s", ErrInvalidDiceSpec, i+1, d)
	}
	return int(d.IntPart()), nil
}

// optionalWhole reads argument i, or returns def when it was not passed.
func (c *call) optionalWhole(i, def int) (int, error) {
	if i >= len(c.args) {
		return def, nil
	}
	return c.whole(i)
}

// spec reads the count and sides at arguments 0 and 1.
func (c *call) spec() (Spec, error) {
	count, err := c.whole(0)
	if err != nil {
		return Spec{}, err
	}
	sides, err := c.whole(1)
	if err != nil {
		return Spec{}, err
	}
	s := Spec{Count: count, Sides: sides}
	return s, s.Validate()
}

// explodingSpec is spec for functions whose dice explode: a one-sided die
// would never stop.
func (c *call) explodingSpec() (Spec, error) {
	s, err := c.spec()
	if err != nil {
		return Spec{}, err
	}
	if s.Sides < 2 {
		return Spec{}, fmt.Errorf("%w: exploding dice need at least 2 sides, got %s", ErrInvalidDiceSpec, s)
	}
	return s, nil
}

func (c *call) argText() []string {
	out := make([]string, len(c.args))
	for i, a := range c.args {
		out[i] = a.String()
	}
	return out
}

type impl func(c *call) (expression.Value, error)

// define registers fn under sig. The call draws from the roll context in
// env.Ctx and commits one history entry when it succeeds.
func define(sig expression.Signature, fn impl) expression.Function {
	sig.Random = true
	if sig.Returns == expression.KindAny {
		sig.Returns = expression.KindNumber
	}
	if len(sig.Args) == 0 {
		sig.Args = []expression.Kind{expression.KindNumber}
	}
	return expression.NewFunction(sig, func(env *expression.Env, args []expression.Value) (expression.Value, error) {
		rc, ok := rollctx.From(env.Ctx)
		if !ok {
			return expression.Value{}, ErrNoRollContext
		}
		c := &call{name: sig.Name, env: env, rc: rc, args: args}
		v, err := fn(c)
		if err != nil {
			rc.Abandon()
			return expression.Value{}, err
		}
		rc.Commit(sig.Name, c.argText(), v.String())
		return v, nil
	})
}

func fixed(name string, n int) expression.Signature {
	return expression.Signature{Name: name, MinArgs: n, MaxArgs: n}
}

// Functions returns every dice function, in no particular order.
func Functions() []expression.Function {
	return []expression.Function{
		define(fixed("roll", 2), rollSum),
		define(fixed("drop", 3), dropLowest),
		define(fixed("dropHighest", 3), dropHighest),
		define(fixed("keep", 3), keepHighest),
		define(fixed("keepLowest", 3), keepLowest),
		define(fixed("reroll", 3), reroll),
		define(fixed("success", 3), countSuccess),
		define(expression.Signature{Name: "explodingSuccess", MinArgs: 3, MaxArgs: 3, Returns: expression.KindText}, explodingSuccess),
		define(expression.Signature{Name: "openTest", MinArgs: 2, MaxArgs: 2, Returns: expression.KindText}, openTest),
		define(fixed("explode", 2), explode),
		define(fixed("hero", 2), heroStun),
		define(fixed("herobody", 2), heroBody),
		define(fixed("herokilling", 3), heroKilling(halfDieMultiplier)),
		define(fixed("herokilling2", 3), heroKilling(dieMinusOneMultiplier)),
		define(fixed("heromultiplier", 3), heroMultiplier),
		define(fixed("fudge", 1), fudge),
		define(fixed("ubiquity", 1), ubiquity),
		define(expression.Signature{Name: "sr4", MinArgs: 1, MaxArgs: 2, Returns: expression.KindText}, shadowrun(false)),
		define(expression.Signature{Name: "sr4e", MinArgs: 1, MaxArgs: 2, Returns: expression.KindText}, shadowrun(true)),
		define(fixed("rollWithLower", 3), rollWithLower),
		define(fixed("rollWithUpper", 3), rollWithUpper),
		define(fixed("rollSubWithLower", 4), rollSubWithLower),
		define(fixed("rollAddWithUpper", 4), rollAddWithUpper),
		define(fixed("rollAddWithLower", 4), rollAddWithLower),
	}
}

// NewCatalog returns the arithmetic builtins, the dice functions and extra.
func NewCatalog(extra ...expression.Function) (*expression.Catalog, error) {
	fns := append(expression.Builtins(), Functions()...)
	return expression.NewCatalog(append(fns, extra...)...)
}
