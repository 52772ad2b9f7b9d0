package dice

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/dicenotation/internal/expression"
	"github.com/louisbranch/dicenotation/internal/random"
	"github.com/louisbranch/dicenotation/internal/rollctx"
)

type harness struct {
	t   *testing.T
	env *expression.Env
	rc  *rollctx.Context
	fns map[string]expression.Function
}

func newHarness(t *testing.T, seed int64) *harness {
	t.Helper()
	rc := rollctx.New(random.NewStream(seed))
	fns := map[string]expression.Function{}
	for _, fn := range Functions() {
		fns[fn.Signature().Name] = fn
	}
	return &harness{
		t:   t,
		env: expression.NewEnv(rollctx.With(context.Background(), rc), nil),
		rc:  rc,
		fns: fns,
	}
}

func (h *harness) call(name string, args ...int64) (expression.Value, error) {
	h.t.Helper()
	fn, ok := h.fns[name]
	if !ok {
		h.t.Fatalf("no dice function %q", name)
	}
	values := make([]expression.Value, len(args))
	for i, a := range args {
		values[i] = expression.Int(a)
	}
	return fn.Call(h.env, values)
}

func (h *harness) want(name string, args []int64, want string) {
	h.t.Helper()
	got, err := h.call(name, args...)
	if err != nil {
		h.t.Fatalf("%s%v error = %v", name, args, err)
	}
	if got.String() != want {
		h.t.Fatalf("%s%v = %q, want %q", name, args, got.String(), want)
	}
}

func TestSeededResults(t *testing.T) {
	tests := []struct {
		name string
		seed int64
		fn   string
		args []int64
		want string
	}{
		{"roll", 10423, "roll", []int64{4, 6}, "15"},
		{"explode", 10423, "explode", []int64{10, 6}, "63"},
		{"drop lowest", 10423, "drop", []int64{10, 6, 2}, "37"},
		{"keep highest", 10423, "keep", []int64{10, 6, 8}, "37"},
		{"drop highest", 10423, "dropHighest", []int64{4, 6, 1}, "11"},
		{"keep lowest", 10423, "keepLowest", []int64{4, 6, 3}, "11"},
		{"success", 10423, "success", []int64{10, 6, 4}, "8"},
		{"reroll", 10423, "reroll", []int64{4, 6, 4}, "18"},
		{"exploding success d4", 10423, "explodingSuccess", []int64{10, 4, 6}, "Dice: 1, 2, 2, 1, 2, 7, 1, 7, 2, 3, Successes: 2"},
		{"exploding success d6", 10423, "explodingSuccess", []int64{10, 6, 9}, "Dice: 4, 4, 4, 3, 16, 5, 1, 4, 14, 8, Successes: 2"},
		{"open test d4", 10423, "openTest", []int64{10, 4}, "Dice: 1, 2, 2, 1, 2, 7, 1, 7, 2, 3, Maximum: 7"},
		{"open test d6", 10423, "openTest", []int64{10, 6}, "Dice: 4, 4, 4, 3, 16, 5, 1, 4, 14, 8, Maximum: 16"},
		{"sr4", 10523, "sr4", []int64{5}, "Hits: 1 Ones: 1  Results: 3 1 4 6 3 "},
		{"sr4 gremlins", 10523, "sr4", []int64{5, 2}, "Hits: 1 Ones: 1 *Glitch*  Results: 3 1 4 6 3 "},
		{"sr4 edge", 10523, "sr4e", []int64{5}, "Hits: 1 Ones: 2  Results: 3 1 4 6 3 1 "},
		{"sr4 edge gremlins", 10523, "sr4e", []int64{5, 2}, "Hits: 1 Ones: 2 *Glitch*  Results: 3 1 4 6 3 1 "},
		{"with lower", 10423, "rollWithLower", []int64{4, 6, 4}, "16"},
		{"with upper", 10423, "rollWithUpper", []int64{4, 6, 3}, "12"},
		{"sub with lower", 10423, "rollSubWithLower", []int64{4, 6, 1, 2}, "11"},
		{"add with upper", 10423, "rollAddWithUpper", []int64{4, 6, 1, 5}, "19"},
		{"add with lower", 10423, "rollAddWithLower", []int64{4, 6, 2, 1}, "17"},
		{"add with lower floor", 10423, "rollAddWithLower", []int64{4, 6, -20, 1}, "1"},
		{"zero dice", 10423, "roll", []int64{0, 6}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newHarness(t, tt.seed).want(tt.fn, tt.args, tt.want)
		})
	}
}

func TestStreamContinuesAcrossCalls(t *testing.T) {
	h := newHarness(t, 10423)
	h.want("fudge", []int64{1}, "-1")
	h.want("fudge", []int64{4}, "0")

	h = newHarness(t, 10423)
	h.want("ubiquity", []int64{1}, "0")
	h.want("ubiquity", []int64{10}, "4")

	h = newHarness(t, 10423)
	h.want("roll", []int64{1, 6}, "4")
	h.want("roll", []int64{1, 20}, "14")
}

func TestHistory(t *testing.T) {
	h := newHarness(t, 10423)
	h.want("roll", []int64{4, 6}, "15")
	h.want("success", []int64{2, 6, 5}, "2")

	hist := h.rc.History()
	if len(hist) != 2 {
		t.Fatalf("History() len = %d, want 2", len(hist))
	}
	if got := hist[0].String(); got != "roll(4, 6): 4, 4, 4, 3 => 15" {
		t.Fatalf("History()[0] = %q", got)
	}
	if got := hist[1].String(); got != "success(2, 6, 5): 6, 6 => 2" {
		t.Fatalf("History()[1] = %q", got)
	}
}

func TestHero(t *testing.T) {
	h := newHarness(t, 10423)
	h.want("hero", []int64{4, 6}, "15")
	h.want("herobody", []int64{4, 6}, "4")

	// Body for a different pool rolls new dice: 6, 6, 4 -> 2 + 2 + 1.
	h.want("herobody", []int64{3, 6}, "5")
}

func TestHeroHalfDie(t *testing.T) {
	h := newHarness(t, 10423)
	hero := h.fns["hero"]
	body := h.fns["herobody"]
	times := expression.Text("4.5")

	stun, err := hero.Call(h.env, []expression.Value{times, expression.Int(6)})
	if err != nil {
		t.Fatalf("hero(4.5, 6) error = %v", err)
	}
	if stun.String() != "18" {
		t.Fatalf("hero(4.5, 6) = %s, want 18", stun)
	}
	b, err := body.Call(h.env, []expression.Value{times, expression.Int(6)})
	if err != nil {
		t.Fatalf("herobody(4.5, 6) error = %v", err)
	}
	if b.String() != "5" {
		t.Fatalf("herobody(4.5, 6) = %s, want 5", b)
	}
}

func TestHeroKilling(t *testing.T) {
	h := newHarness(t, 10423)
	h.want("herokilling", []int64{2, 6, 0}, "8")
	h.want("heromultiplier", []int64{0, 0, 0}, "16")
	h.want("heromultiplier", []int64{0, 0, 1}, "24")

	h = newHarness(t, 10423)
	h.want("herokilling2", []int64{2, 6, 0}, "8")
	h.want("heromultiplier", []int64{0, 0, 0}, "24")

	h = newHarness(t, 10423)
	if _, err := h.call("heromultiplier", 0, 0, 0); err == nil {
		t.Fatal("heromultiplier(0, 0, 0) without a killing roll: expected error")
	}
	// 2d6 -> 4, 4; multiplier ½d6 -> 2; stun = 8 * 2.
	h.want("heromultiplier", []int64{2, 6, 0}, "16")
}

func TestInvalidSpecs(t *testing.T) {
	tests := []struct {
		fn   string
		args []int64
		want error
	}{
		{"roll", []int64{1, 0}, ErrInvalidDiceSpec},
		{"roll", []int64{-1, 6}, ErrInvalidDiceSpec},
		{"roll", []int64{MaxDice + 1, 6}, ErrTooManyDice},
		{"explode", []int64{3, 1}, ErrInvalidDiceSpec},
		{"openTest", []int64{3, 1}, ErrInvalidDiceSpec},
		{"drop", []int64{2, 6, 3}, ErrInvalidDiceSpec},
		{"reroll", []int64{2, 6, 7}, ErrInvalidDiceSpec},
		{"fudge", []int64{-1}, ErrInvalidDiceSpec},
		{"sr4", []int64{5, -1}, ErrInvalidDiceSpec},
	}
	for _, tt := range tests {
		h := newHarness(t, 1)
		_, err := h.call(tt.fn, tt.args...)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s%v error = %v, want %v", tt.fn, tt.args, err, tt.want)
		}
		if h.rc.Len() != 0 {
			t.Fatalf("%s%v committed history on error", tt.fn, tt.args)
		}
	}

	h := newHarness(t, 1)
	_, err := h.fns["roll"].Call(h.env, []expression.Value{expression.Text("1.5"), expression.Int(6)})
	if !errors.Is(err, ErrInvalidDiceSpec) {
		t.Fatalf("roll(1.5, 6) error = %v, want %v", err, ErrInvalidDiceSpec)
	}
}

func TestRerollStopsAtDrawBudget(t *testing.T) {
	h := newHarness(t, 1)
	_, err := h.call("reroll", MaxDice, 2000000000, 2000000000)
	if !errors.Is(err, ErrTooManyDice) {
		t.Fatalf("reroll past the draw budget error = %v, want %v", err, ErrTooManyDice)
	}
	if h.rc.Len() != 0 {
		t.Fatal("reroll committed history past the draw budget")
	}

	// 100d6 rerolling ones stays well inside the budget.
	h = newHarness(t, 1)
	if _, err := h.call("reroll", 100, 6, 2); err != nil {
		t.Fatalf("reroll(100, 6, 2) error = %v", err)
	}
}

func TestHeroRejectsHugeCounts(t *testing.T) {
	h := newHarness(t, 10423)
	for _, times := range []string{"18446744073709551619", "10001", "10000.5"} {
		_, err := h.fns["hero"].Call(h.env, []expression.Value{expression.Text(times), expression.Int(6)})
		if !errors.Is(err, ErrTooManyDice) {
			t.Fatalf("hero(%s, 6) error = %v, want %v", times, err, ErrTooManyDice)
		}
	}
	if h.rc.Len() != 0 {
		t.Fatalf("rejected hero rolls committed %d entries", h.rc.Len())
	}
}

func TestNoRollContext(t *testing.T) {
	env := expression.NewEnv(context.Background(), nil)
	for _, fn := range Functions() {
		if fn.Signature().Name != "roll" {
			continue
		}
		if _, err := fn.Call(env, []expression.Value{expression.Int(1), expression.Int(6)}); !errors.Is(err, ErrNoRollContext) {
			t.Fatalf("roll without context error = %v, want %v", err, ErrNoRollContext)
		}
	}
}

func TestCatalog(t *testing.T) {
	catalog, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	for _, name := range []string{"roll", "explodingSuccess", "sr4e", "rollAddWithLower", "max"} {
		if _, ok := catalog.Lookup(name); !ok {
			t.Fatalf("Lookup(%q) not found", name)
		}
	}
	for _, fn := range Functions() {
		sig := fn.Signature()
		if !sig.Random {
			t.Fatalf("%s is not marked random", sig.Name)
		}
	}
	text := map[string]bool{"explodingSuccess": true, "openTest": true, "sr4": true, "sr4e": true}
	for _, fn := range Functions() {
		sig := fn.Signature()
		if (sig.Returns == expression.KindText) != text[sig.Name] {
			t.Fatalf("%s returns %s", sig.Name, sig.Returns)
		}
	}
}
