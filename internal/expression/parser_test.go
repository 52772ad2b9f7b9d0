package expression

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestParser(t *testing.T, extra ...Function) *Parser {
	t.Helper()
	catalog, err := NewCatalog(append(Builtins(), extra...)...)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return NewParser(catalog)
}

func TestParseFormat(t *testing.T) {
	p := newTestParser(t)
	tests := []struct {
		in   string
		want string
	}{
		{"100+4*10", "100 + 4 * 10"},
		{"(1+2)*3", "(1 + 2) * 3"},
		{"1-(2-3)", "1 - (2 - 3)"},
		{"1-2-3", "1 - 2 - 3"},
		{"2^3^2", "2 ^ 3 ^ 2"},
		{"(2^3)^2", "(2 ^ 3) ^ 2"},
		{"-2^2", "-2 ^ 2"},
		{"(-2)^2", "(-2) ^ 2"},
		{"max(1,2+3)", "max(1, 2 + 3)"},
		{"x=1+2", "x = 1 + 2"},
		{`'a' + "b"`, "'a' + 'b'"},
		{"0xFF", "255"},
		{"10>2&&!0", "10 > 2 && !0"},
		{"1 ||\r\n 0", "1 || 0"},
		{"food10 + 10", "food10 + 10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			xp, err := p.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got := xp.Format(); got != tt.want {
				t.Fatalf("Format() = %q, want %q", got, tt.want)
			}
			again, err := p.Parse(xp.Format())
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", xp.Format(), err)
			}
			if again.Format() != tt.want {
				t.Fatalf("reparsed Format() = %q, want %q", again.Format(), tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	p := newTestParser(t)
	tests := []struct {
		in   string
		want string
	}{
		{"100 + 4 * 10", "140"},
		{"2 ^ 3 ^ 2", "512"},
		{"-2 ^ 2", "-4"},
		{"7 % 3", "1"},
		{"10 / 4", "2.5"},
		{"'10' + 'd10'", "10d10"},
		{"'3' * 2", "6"},
		{"10 > 2", "1"},
		{"10 < 2", "0"},
		{"2 == 2.0", "1"},
		{"'a' != 'b'", "1"},
		{"0 || 'x'", "1"},
		{"1 && 0", "0"},
		{"abs(-3)", "3"},
		{"floor(2.7)", "2"},
		{"ceil(2.1)", "3"},
		{"round(2.5)", "3"},
		{"round(-2.5)", "-3"},
		{"round(1.2345, 2)", "1.23"},
		{"trunc(-2.7)", "-2"},
		{"min(3, 1, 2)", "1"},
		{"max(3, 1, 2)", "3"},
		{"0xFF0000", "16711680"},
		{".5 + 1", "1.5"},
		{"true + 1", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			xp, err := p.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			got, err := xp.Evaluate(NewEnv(context.Background(), nil))
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Fatalf("Evaluate(%q) = %q, want %q", tt.in, got.String(), tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	p := newTestParser(t)

	for _, in := range []string{"", "   ", "1 +", "(1", "1 2", "'abc", "3 = 4", "max(1,", "1 $ 2"} {
		_, err := p.Parse(in)
		var syn *SyntaxError
		if !errors.As(err, &syn) {
			t.Fatalf("Parse(%q) error = %v, want SyntaxError", in, err)
		}
	}

	_, err := p.Parse("nope(1)")
	var unknown *UnknownNameError
	if !errors.As(err, &unknown) || unknown.Kind != NameFunction || unknown.Name != "nope" {
		t.Fatalf("Parse(nope(1)) error = %v, want unknown function", err)
	}

	// Names are case-sensitive.
	if _, err := p.Parse("ABS(1)"); !errors.As(err, &unknown) {
		t.Fatalf("Parse(ABS(1)) error = %v, want unknown function", err)
	}

	_, err = p.Parse("abs(1, 2)")
	var argErr *ArgumentError
	if !errors.As(err, &argErr) || argErr.Function != "abs" {
		t.Fatalf("Parse(abs(1, 2)) error = %v, want ArgumentError", err)
	}
}

func TestEvaluateErrors(t *testing.T) {
	p := newTestParser(t)
	env := NewEnv(context.Background(), nil)

	for _, in := range []string{"1 / 0", "1 % 0", "0 ^ -1"} {
		xp, err := p.Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if _, err := xp.Evaluate(env); !errors.Is(err, ErrDivisionByZero) {
			t.Fatalf("Evaluate(%q) error = %v, want %v", in, err, ErrDivisionByZero)
		}
	}

	xp, _ := p.Parse("missing + 1")
	_, err := xp.Evaluate(env)
	var unknown *UnknownNameError
	if !errors.As(err, &unknown) || unknown.Kind != NameVariable {
		t.Fatalf("Evaluate(missing + 1) error = %v, want unknown variable", err)
	}

	for _, in := range []string{"2 ^ 0.5", "'x' * 2", "abs('x')", "10 ^ 999999999", "2 ^ -1001", "(10 ^ 1000) ^ 1000"} {
		xp, err := p.Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		var argErr *ArgumentError
		if _, err := xp.Evaluate(env); !errors.As(err, &argErr) {
			t.Fatalf("Evaluate(%q) error = %v, want ArgumentError", in, err)
		}
	}
}

func TestEvaluateLargePowers(t *testing.T) {
	p := newTestParser(t)
	env := NewEnv(context.Background(), nil)

	xp, err := p.Parse("2 ^ 1000")
	if err != nil {
		t.Fatalf("Parse(2 ^ 1000) error = %v", err)
	}
	got, err := xp.Evaluate(env)
	if err != nil {
		t.Fatalf("Evaluate(2 ^ 1000) error = %v", err)
	}
	if s := got.String(); len(s) != 302 || !strings.HasSuffix(s, "069376") {
		t.Fatalf("Evaluate(2 ^ 1000) = %s", s)
	}
}

func TestVariables(t *testing.T) {
	p := newTestParser(t)
	vars := NewVariables()
	vars.Set("food10", Int(10))
	env := NewEnv(context.Background(), vars)

	for _, step := range []struct{ in, want string }{
		{"food10 + 10", "20"},
		{"x = 2 + 3", "5"},
		{"x * 2", "10"},
		{"y = x = 1", "1"},
	} {
		xp, err := p.Parse(step.in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", step.in, err)
		}
		got, err := xp.Evaluate(env)
		if err != nil {
			t.Fatalf("Evaluate(%q) error = %v", step.in, err)
		}
		if got.String() != step.want {
			t.Fatalf("Evaluate(%q) = %s, want %s", step.in, got, step.want)
		}
	}
	if got := strings.Join(vars.Names(), ","); got != "food10,x,y" {
		t.Fatalf("Names() = %q, want %q", got, "food10,x,y")
	}
}

// counter is a random-style function whose calls are observable.
type counter struct {
	calls   int
	returns Kind
}

func (c *counter) Signature() Signature {
	return Signature{Name: "next", MaxArgs: 0, Returns: c.returns, Random: true}
}

func (c *counter) Call(*Env, []Value) (Value, error) {
	c.calls++
	if c.returns == KindText {
		return Text("call " + Int(int64(c.calls)).String()), nil
	}
	return Int(int64(c.calls)), nil
}

func TestDeterministic(t *testing.T) {
	t.Run("numeric calls become literals", func(t *testing.T) {
		fn := &counter{returns: KindNumber}
		p := newTestParser(t, fn)
		xp, err := p.Parse("next() * 10 + next()")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		env := NewEnv(context.Background(), nil)
		det, err := xp.Deterministic(env)
		if err != nil {
			t.Fatalf("Deterministic() error = %v", err)
		}
		if got := det.Format(); got != "1 * 10 + 2" {
			t.Fatalf("Format() = %q, want %q", got, "1 * 10 + 2")
		}
		got, err := det.Evaluate(env)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if got.String() != "12" {
			t.Fatalf("Evaluate() = %s, want 12", got)
		}
		if fn.calls != 2 {
			t.Fatalf("calls = %d, want 2", fn.calls)
		}
		if xp.Format() != "next() * 10 + next()" {
			t.Fatalf("original Format() = %q, want it unchanged", xp.Format())
		}
	})

	t.Run("text calls are kept", func(t *testing.T) {
		fn := &counter{returns: KindText}
		p := newTestParser(t, fn)
		xp, err := p.Parse("next()")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		env := NewEnv(context.Background(), nil)
		det, err := xp.Deterministic(env)
		if err != nil {
			t.Fatalf("Deterministic() error = %v", err)
		}
		if fn.calls != 0 {
			t.Fatalf("calls after Deterministic = %d, want 0", fn.calls)
		}
		if got := det.Format(); got != "next()" {
			t.Fatalf("Format() = %q, want %q", got, "next()")
		}
		got, err := det.Evaluate(env)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if got.String() != "call 1" || fn.calls != 1 {
			t.Fatalf("Evaluate() = %q after %d calls, want %q after 1", got, fn.calls, "call 1")
		}
	})

	t.Run("decided logic leaves the right operand unrolled", func(t *testing.T) {
		tests := []struct {
			in    string
			calls int
			truth bool
		}{
			{"0 && next()", 0, false},
			{"1 || next()", 0, true},
			{"1 && next()", 1, true},
			{"0 || next()", 1, true},
		}
		for _, tt := range tests {
			fn := &counter{returns: KindNumber}
			p := newTestParser(t, fn)
			xp, err := p.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			env := NewEnv(context.Background(), nil)
			det, err := xp.Deterministic(env)
			if err != nil {
				t.Fatalf("Deterministic(%q) error = %v", tt.in, err)
			}
			got, err := det.Evaluate(env)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.in, err)
			}
			if fn.calls != tt.calls || got.Truthy() != tt.truth {
				t.Fatalf("%q = %s after %d calls, want truth %v after %d", tt.in, got, fn.calls, tt.truth, tt.calls)
			}
		}
	})

	t.Run("negative results keep precedence", func(t *testing.T) {
		neg := NewFunction(Signature{Name: "neg", Returns: KindNumber, Random: true}, func(*Env, []Value) (Value, error) {
			return Int(-2), nil
		})
		p := newTestParser(t, neg)
		xp, err := p.Parse("neg() ^ 2")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		env := NewEnv(context.Background(), nil)
		det, err := xp.Deterministic(env)
		if err != nil {
			t.Fatalf("Deterministic() error = %v", err)
		}
		if got := det.Format(); got != "(-2) ^ 2" {
			t.Fatalf("Format() = %q, want %q", got, "(-2) ^ 2")
		}
		got, _ := det.Evaluate(env)
		if got.String() != "4" {
			t.Fatalf("Evaluate() = %s, want 4", got)
		}
	})
}

type suffixer string

func (s suffixer) Transform(text string) string { return text + string(s) }

func TestParserTransformers(t *testing.T) {
	catalog, err := NewCatalog(Builtins()...)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	p := NewParser(catalog, suffixer("+1"), suffixer("*2"))
	if got := p.Rewrite("3"); got != "3+1*2" {
		t.Fatalf("Rewrite() = %q, want %q", got, "3+1*2")
	}
	xp, err := p.Parse("3")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if xp.Text() != "3+1*2" {
		t.Fatalf("Text() = %q, want %q", xp.Text(), "3+1*2")
	}
	if _, err := p.ParseCanonical("3"); err != nil {
		t.Fatalf("ParseCanonical() error = %v", err)
	}
}

func TestCatalog(t *testing.T) {
	if _, err := NewCatalog(append(Builtins(), Builtins()[0])...); err == nil {
		t.Fatal("NewCatalog() with duplicate name: expected error")
	}
	catalog, err := NewCatalog(Builtins()...)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	sigs := catalog.Signatures()
	if len(sigs) != catalog.Len() || sigs[0].Name != "abs" || sigs[len(sigs)-1].Name != "trunc" {
		t.Fatalf("Signatures() = %v, want sorted builtins", sigs)
	}
	if _, ok := catalog.Lookup("min"); !ok {
		t.Fatal("Lookup(min) not found")
	}
}
