package dice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/louisbranch/dicenotation/internal/expression"
	"github.com/louisbranch/dicenotation/internal/rollctx"
)

// Hero System rolls remember the previous roll so a body or stun total can be
// read from the same dice. The state lives in the evaluation's variables
// under names the notation cannot spell.
const (
	heroStateVar    = "#hero"
	killingStateVar = "#herokilling"
)

// heroRoll is a Hero System pool: whole dice plus an optional half die.
type heroRoll struct {
	times string
	sides int
	dice  []int
	half  int // raw half-die roll, 0 when the pool has none
}

func (r heroRoll) stun() int {
	return sum(r.dice) + (r.half+1)/2
}

// body counts 0 for a 1, 2 for the highest face and 1 otherwise; the half die
// counts 1 in the upper half of its range.
func (r heroRoll) body() int {
	total := 0
	for _, v := range r.dice {
		switch v {
		case 1:
		case r.sides:
			total += 2
		default:
			total++
		}
	}
	if r.half*2 > r.sides {
		total++
	}
	return total
}

func (r heroRoll) encode() string {
	return fmt.Sprintf("%s;%d;%s;%d", r.times, r.sides, joinInts(r.dice, ","), r.half)
}

func decodeHeroRoll(text string) (heroRoll, bool) {
	parts := strings.Split(text, ";")
	if len(parts) != 4 {
		return heroRoll{}, false
	}
	sides, err := strconv.Atoi(parts[1])
	if err != nil {
		return heroRoll{}, false
	}
	half, err := strconv.Atoi(parts[3])
	if err != nil {
		return heroRoll{}, false
	}
	var dice []int
	if parts[2] != "" {
		for _, f := range strings.Split(parts[2], ",") {
			v, err := strconv.Atoi(f)
			if err != nil {
				return heroRoll{}, false
			}
			dice = append(dice, v)
		}
	}
	return heroRoll{times: parts[0], sides: sides, dice: dice, half: half}, true
}

// heroDice rolls the pool described by arguments 0 (count, may have a
// fraction for the half die) and 1 (sides), and remembers it.
func (c *call) heroDice() (heroRoll, error) {
	times, err := c.decimal(0)
	if err != nil {
		return heroRoll{}, err
	}
	sides, err := c.whole(1)
	if err != nil {
		return heroRoll{}, err
	}
	if times.IsNegative() {
		return heroRoll{}, fmt.Errorf("%w: negative dice count %s", ErrInvalidDiceSpec, times)
	}
	if times.GreaterThan(decimal.NewFromInt(MaxDice)) {
		return heroRoll{}, fmt.Errorf("%w: %s", ErrTooManyDice, times)
	}
	s := Spec{Count: int(times.IntPart()), Sides: sides}
	if err := s.Validate(); err != nil {
		return heroRoll{}, err
	}
	r := heroRoll{times: times.String(), sides: sides, dice: roll(c.rc, s)}
	if !times.IsInteger() {
		r.half = c.rc.Die(sides)
	}
	c.env.Vars.Set(heroStateVar, expression.Text(r.encode()))
	return r, nil
}

func heroStun(c *call) (expression.Value, error) {
	r, err := c.heroDice()
	if err != nil {
		return expression.Value{}, err
	}
	return expression.Int(int64(r.stun())), nil
}

// heroBody reads the body total of the previous hero roll when it used the
// same dice, and rolls a new pool otherwise.
func heroBody(c *call) (expression.Value, error) {
	times, err := c.decimal(0)
	if err != nil {
		return expression.Value{}, err
	}
	sides, err := c.whole(1)
	if err != nil {
		return expression.Value{}, err
	}
	if v, ok := c.env.Vars.Get(heroStateVar); ok {
		if last, ok := decodeHeroRoll(v.String()); ok && last.times == times.String() && last.sides == sides {
			return expression.Int(int64(last.body())), nil
		}
	}
	r, err := c.heroDice()
	if err != nil {
		return expression.Value{}, err
	}
	return expression.Int(int64(r.body())), nil
}

type multiplierRoll func(rc *rollctx.Context) int

// halfDieMultiplier rolls ½d6.
func halfDieMultiplier(rc *rollctx.Context) int {
	return (rc.Die(6) + 1) / 2
}

// dieMinusOneMultiplier rolls d6-1, at least 1.
func dieMinusOneMultiplier(rc *rollctx.Context) int {
	return max(1, rc.Die(6)-1)
}

type killingRoll struct {
	body       int
	multiplier int
}

func (c *call) rememberKilling(k killingRoll) {
	c.env.Vars.Set(killingStateVar, expression.Text(fmt.Sprintf("%d;%d", k.body, k.multiplier)))
}

func (c *call) lastKilling() (killingRoll, bool) {
	v, ok := c.env.Vars.Get(killingStateVar)
	if !ok {
		return killingRoll{}, false
	}
	var k killingRoll
	if _, err := fmt.Sscanf(v.String(), "%d;%d", &k.body, &k.multiplier); err != nil {
		return killingRoll{}, false
	}
	return k, true
}

// heroKilling rolls killing damage and returns its body. The stun multiplier,
// adjusted by argument 2 and at least 1, is kept for heromultiplier.
func heroKilling(multiplier multiplierRoll) impl {
	return func(c *call) (expression.Value, error) {
		mod, err := c.whole(2)
		if err != nil {
			return expression.Value{}, err
		}
		r, err := c.heroDice()
		if err != nil {
			return expression.Value{}, err
		}
		k := killingRoll{body: r.stun(), multiplier: max(1, multiplier(c.rc)+mod)}
		c.rememberKilling(k)
		return expression.Int(int64(k.body)), nil
	}
}

// heroMultiplier returns killing stun: body times the multiplier plus
// argument 2, at least 1. With no dice (0, 0) it reuses the last killing
// roll.
func heroMultiplier(c *call) (expression.Value, error) {
	mod, err := c.whole(2)
	if err != nil {
		return expression.Value{}, err
	}
	times, err := c.decimal(0)
	if err != nil {
		return expression.Value{}, err
	}
	sides, err := c.whole(1)
	if err != nil {
		return expression.Value{}, err
	}
	if times.IsZero() && sides == 0 {
		k, ok := c.lastKilling()
		if !ok {
			return expression.Value{}, &expression.ArgumentError{Function: c.name, Msg: "no killing roll to reuse"}
		}
		return expression.Int(int64(k.body * max(1, k.multiplier+mod))), nil
	}
	r, err := c.heroDice()
	if err != nil {
		return expression.Value{}, err
	}
	k := killingRoll{body: r.stun(), multiplier: halfDieMultiplier(c.rc)}
	c.rememberKilling(k)
	return expression.Int(int64(k.body * max(1, k.multiplier+mod))), nil
}
