package dice

import (
	"fmt"
	"strings"

	"github.com/louisbranch/dicenotation/internal/expression"
)

// shadowrun rolls a Shadowrun 4 pool of d6: 5s and 6s are hits, and a glitch
// happens when ones plus gremlins reach half the pool. With edge, every 6
// adds another die to the pool.
func shadowrun(edge bool) impl {
	return func(c *call) (expression.Value, error) {
		pool, err := c.count(0)
		if err != nil {
			return expression.Value{}, err
		}
		gremlins, err := c.optionalWhole(1, 0)
		if err != nil {
			return expression.Value{}, err
		}
		if gremlins < 0 {
			return expression.Value{}, fmt.Errorf("%w: negative gremlins %d", ErrInvalidDiceSpec, gremlins)
		}

		results := roll(c.rc, Spec{Count: pool, Sides: 6})
		if edge {
			for i := 0; i < len(results); i++ {
				if results[i] == 6 {
					if len(results) >= MaxDice {
						return expression.Value{}, ErrTooManyDice
					}
					results = append(results, c.rc.Die(6))
				}
			}
		}

		hits, ones := 0, 0
		for _, v := range results {
			switch {
			case v >= 5:
				hits++
			case v == 1:
				ones++
			}
		}

		glitch := ""
		if pool > 0 && 2*(ones+gremlins) >= pool {
			glitch = "*Glitch* "
			if hits == 0 {
				glitch = "*Critical Glitch* "
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Hits: %d Ones: %d %s Results: ", hits, ones, glitch)
		for _, v := range results {
			fmt.Fprintf(&b, "%d ", v)
		}
		return expression.Text(b.String()), nil
	}
}
