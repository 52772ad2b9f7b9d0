package dice

import (
	"fmt"
	"sort"

	"github.com/louisbranch/dicenotation/internal/expression"
)

func rollSum(c *call) (expression.Value, error) {
	s, err := c.spec()
	if err != nil {
		return expression.Value{}, err
	}
	return expression.Int(int64(sum(roll(c.rc, s)))), nil
}

// sortedRoll rolls s and reads argument 2 as a die count between 0 and the
// number of dice rolled. The returned values are sorted ascending.
func (c *call) sortedRoll() ([]int, int, error) {
	s, err := c.spec()
	if err != nil {
		return nil, 0, err
	}
	n, err := c.whole(2)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 || n > s.Count {
		return nil, 0, fmt.Errorf("%w: cannot select %d of %s", ErrInvalidDiceSpec, n, s)
	}
	values := roll(c.rc, s)
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	return sorted, n, nil
}

func dropLowest(c *call) (expression.Value, error) {
	sorted, n, err := c.sortedRoll()
	if err != nil {
		return expression.Value{}, err
	}
	return expression.Int(int64(sum(sorted[n:]))), nil
}

func dropHighest(c *call) (expression.Value, error) {
	sorted, n, err := c.sortedRoll()
	if err != nil {
		return expression.Value{}, err
	}
	return expression.Int(int64(sum(sorted[:len(sorted)-n]))), nil
}

func keepHighest(c *call) (expression.Value, error) {
	sorted, n, err := c.sortedRoll()
	if err != nil {
		return expression.Value{}, err
	}
	return expression.Int(int64(sum(sorted[len(sorted)-n:]))), nil
}

func keepLowest(c *call) (expression.Value, error) {
	sorted, n, err := c.sortedRoll()
	if err != nil {
		return expression.Value{}, err
	}
	return expression.Int(int64(sum(sorted[:n]))), nil
}

// reroll rolls again every die that lands below the floor, until it doesn't.
func reroll(c *call) (expression.Value, error) {
	s, err := c.spec()
	if err != nil {
		return expression.Value{}, err
	}
	floor, err := c.whole(2)
	if err != nil {
		return expression.Value{}, err
	}
	if floor > s.Sides {
		return expression.Value{}, fmt.Errorf("%w: reroll floor %d above %d sides", ErrInvalidDiceSpec, floor, s.Sides)
	}
	total := 0
	for i := 0; i < s.Count; i++ {
		v, err := c.draw(s.Sides)
		for err == nil && v < floor {
			v, err = c.draw(s.Sides)
		}
		if err != nil {
			return expression.Value{}, err
		}
		total += v
	}
	return expression.Int(int64(total)), nil
}

// countSuccess counts dice at or above the target.
func countSuccess(c *call) (expression.Value, error) {
	s, err := c.spec()
	if err != nil {
		return expression.Value{}, err
	}
	target, err := c.whole(2)
	if err != nil {
		return expression.Value{}, err
	}
	hits := 0
	for _, v := range roll(c.rc, s) {
		if v >= target {
			hits++
		}
	}
	return expression.Int(int64(hits)), nil
}

func explodingRoll(c *call) ([]int, error) {
	s, err := c.explodingSpec()
	if err != nil {
		return nil, err
	}
	values := make([]int, s.Count)
	for i := range values {
		if values[i], err = c.explodeDie(s.Sides); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func explode(c *call) (expression.Value, error) {
	values, err := explodingRoll(c)
	if err != nil {
		return expression.Value{}, err
	}
	return expression.Int(int64(sum(values))), nil
}

// explodingSuccess reports each exploded die and how many reached the target.
func explodingSuccess(c *call) (expression.Value, error) {
	target, err := c.whole(2)
	if err != nil {
		return expression.Value{}, err
	}
	values, err := explodingRoll(c)
	if err != nil {
		return expression.Value{}, err
	}
	hits := 0
	for _, v := range values {
		if v >= target {
			hits++
		}
	}
	return expression.Text(fmt.Sprintf("Dice: %s, Successes: %d", joinInts(values, ", "), hits)), nil
}

// openTest reports each exploded die and the highest one.
func openTest(c *call) (expression.Value, error) {
	values, err := explodingRoll(c)
	if err != nil {
		return expression.Value{}, err
	}
	highest := 0
	for _, v := range values {
		highest = max(highest, v)
	}
	return expression.Text(fmt.Sprintf("Dice: %s, Maximum: %d", joinInts(values, ", "), highest)), nil
}

// fudge sums dice showing -1, 0 or +1.
func fudge(c *call) (expression.Value, error) {
	n, err := c.count(0)
	if err != nil {
		return expression.Value{}, err
	}
	total := 0
	for i := 0; i < n; i++ {
		total += c.rc.Between(-1, 1)
	}
	return expression.Int(int64(total)), nil
}

// ubiquity counts successes on two-faced dice.
func ubiquity(c *call) (expression.Value, error) {
	n, err := c.count(0)
	if err != nil {
		return expression.Value{}, err
	}
	hits := 0
	for i := 0; i < n; i++ {
		hits += c.rc.Between(0, 1)
	}
	return expression.Int(int64(hits)), nil
}

// count reads argument i as a number of dice.
func (c *call) count(i int) (int, error) {
	n, err := c.whole(i)
	if err != nil {
		return 0, err
	}
	s := Spec{Count: n, Sides: 1}
	return n, s.Validate()
}

// bounded rolls each die through adjust and sums the results.
func bounded(c *call, adjust func(die int) int) (expression.Value, error) {
	s, err := c.spec()
	if err != nil {
		return expression.Value{}, err
	}
	total := 0
	for _, v := range roll(c.rc, s) {
		total += adjust(v)
	}
	return expression.Int(int64(total)), nil
}

func rollWithLower(c *call) (expression.Value, error) {
	lower, err := c.whole(2)
	if err != nil {
		return expression.Value{}, err
	}
	return bounded(c, func(die int) int { return max(die, lower) })
}

func rollWithUpper(c *call) (expression.Value, error) {
	upper, err := c.whole(2)
	if err != nil {
		return expression.Value{}, err
	}
	return bounded(c, func(die int) int { return min(die, upper) })
}

func rollSubWithLower(c *call) (expression.Value, error) {
	sub, err := c.whole(2)
	if err != nil {
		return expression.Value{}, err
	}
	lower, err := c.whole(3)
	if err != nil {
		return expression.Value{}, err
	}
	return bounded(c, func(die int) int { return max(die-sub, lower) })
}

func rollAddWithUpper(c *call) (expression.Value, error) {
	add, err := c.whole(2)
	if err != nil {
		return expression.Value{}, err
	}
	upper, err := c.whole(3)
	if err != nil {
		return expression.Value{}, err
	}
	return bounded(c, func(die int) int { return min(die+add, upper) })
}

// rollAddWithLower bounds the total rather than each die.
func rollAddWithLower(c *call) (expression.Value, error) {
	s, err := c.spec()
	if err != nil {
		return expression.Value{}, err
	}
	add, err := c.whole(2)
	if err != nil {
		return expression.Value{}, err
	}
	lower, err := c.whole(3)
	if err != nil {
		return expression.Value{}, err
	}
	return expression.Int(int64(max(sum(roll(c.rc, s))+add, lower))), nil
}
