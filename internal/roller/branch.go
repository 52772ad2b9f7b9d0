package roller

import (
	"github.com/louisbranch/dicenotation/internal/expression"
	"github.com/louisbranch/dicenotation/internal/rollctx"
)

// ifFunction is if(cond, then, else). Only the chosen branch is derived, so
// dice in the other branch are never rolled.
type ifFunction struct{}

func (ifFunction) Signature() expression.Signature {
	return expression.Signature{
		Name:    "if",
		MinArgs: 3,
		MaxArgs: 3,
		Args:    []expression.Kind{expression.KindAny},
		Returns: expression.KindAny,
	}
}

// Call picks between already evaluated arguments.
func (ifFunction) Call(_ *expression.Env, args []expression.Value) (expression.Value, error) {
	if args[0].Truthy() {
		return args[1], nil
	}
	return args[2], nil
}

// Branch rolls the condition in the current scope and derives the chosen
// branch in a child scope whose history joins the parent only on success.
func (ifFunction) Branch(env *expression.Env, args []expression.Node) (expression.Node, error) {
	cond, err := args[0].Deterministic(env)
	if err != nil {
		return nil, err
	}
	v, err := cond.Evaluate(env)
	if err != nil {
		return nil, err
	}
	chosen := args[2]
	if v.Truthy() {
		chosen = args[1]
	}

	parent, ok := rollctx.From(env.Ctx)
	if !ok {
		return chosen.Deterministic(env)
	}
	child := parent.Child()
	det, err := chosen.Deterministic(env.WithContext(rollctx.With(env.Ctx, child)))
	if err != nil {
		return nil, err
	}
	child.Merge()
	return det, nil
}
