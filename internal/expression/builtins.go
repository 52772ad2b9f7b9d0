package expression

import (
	"github.com/shopspring/decimal"
)

// Builtins returns the arithmetic helpers every catalog starts with.
func Builtins() []Function {
	return []Function{
		unary("abs", decimal.Decimal.Abs),
		unary("ceil", decimal.Decimal.Ceil),
		unary("floor", decimal.Decimal.Floor),
		unary("trunc", func(d decimal.Decimal) decimal.Decimal { return d.Truncate(0) }),
		NewFunction(Signature{
			Name:    "round",
			MinArgs: 1,
			MaxArgs: 2,
			Args:    []Kind{KindNumber},
			Returns: KindNumber,
		}, round),
		extreme("min", -1),
		extreme("max", 1),
	}
}

func unary(name string, op func(decimal.Decimal) decimal.Decimal) Function {
	return NewFunction(Signature{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Args:    []Kind{KindNumber},
		Returns: KindNumber,
	}, func(_ *Env, args []Value) (Value, error) {
		d, err := args[0].Decimal()
		if err != nil {
			return Value{}, err
		}
		return Number(op(d)), nil
	})
}

// round rounds half away from zero, to an optional number of places.
func round(_ *Env, args []Value) (Value, error) {
	d, err := args[0].Decimal()
	if err != nil {
		return Value{}, err
	}
	places := int32(0)
	if len(args) == 2 {
		p, err := args[1].Decimal()
		if err != nil {
			return Value{}, err
		}
		if !p.IsInteger() || p.LessThan(decimal.NewFromInt(-32)) || p.GreaterThan(decimal.NewFromInt(32)) {
			return Value{}, &ArgumentError{Function: "round", Msg: "places must be a whole number between -32 and 32"}
		}
		places = int32(p.IntPart())
	}
	return Number(d.Round(places)), nil
}

// extreme picks the smallest (sign -1) or largest (sign 1) argument.
func extreme(name string, sign int) Function {
	return NewFunction(Signature{
		Name:    name,
		MinArgs: 1,
		MaxArgs: Unbounded,
		Args:    []Kind{KindNumber},
		Returns: KindNumber,
	}, func(_ *Env, args []Value) (Value, error) {
		best, err := args[0].Decimal()
		if err != nil {
			return Value{}, err
		}
		for _, arg := range args[1:] {
			d, err := arg.Decimal()
			if err != nil {
				return Value{}, err
			}
			if d.Cmp(best) == sign {
				best = d
			}
		}
		return Number(best), nil
	})
}
