package expression

import (
	"context"
	"fmt"
	"sort"
)

// Unbounded marks a signature that accepts any number of trailing arguments.
const Unbounded = -1

// Signature describes a catalog entry.
type Signature struct {
	Name    string
	MinArgs int
	MaxArgs int
	// Args lists parameter kinds; the last entry applies to any further
	// arguments. An empty list accepts any kind.
	Args    []Kind
	Returns Kind
	// Random marks functions that draw from the roll context. Their calls are
	// replaced by the value they produced when a deterministic variant is
	// derived, unless they return text.
	Random bool
}

func (s Signature) argKind(i int) Kind {
	if len(s.Args) == 0 {
		return KindAny
	}
	if i < len(s.Args) {
		return s.Args[i]
	}
	return s.Args[len(s.Args)-1]
}

func (s Signature) checkArity(n int) error {
	if n < s.MinArgs || (s.MaxArgs != Unbounded && n > s.MaxArgs) {
		return &ArgumentError{Function: s.Name, Msg: fmt.Sprintf("takes %s, got %d", s.arityText(), n)}
	}
	return nil
}

func (s Signature) arityText() string {
	switch {
	case s.MaxArgs == Unbounded:
		return fmt.Sprintf("at least %d arguments", s.MinArgs)
	case s.MinArgs == s.MaxArgs:
		return fmt.Sprintf("%d arguments", s.MinArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", s.MinArgs, s.MaxArgs)
	}
}

func (s Signature) checkArgs(args []Value) error {
	if err := s.checkArity(len(args)); err != nil {
		return err
	}
	for i, arg := range args {
		want := s.argKind(i)
		if want == KindNumber && arg.IsText() {
			if _, err := arg.Decimal(); err != nil {
				return &ArgumentError{Function: s.Name, Msg: fmt.Sprintf("argument %d must be a number", i+1), Cause: err}
			}
		}
	}
	return nil
}

// Env carries the per-call state visible to nodes and functions while a
// tree is evaluated.
type Env struct {
	Ctx  context.Context
	Vars Variables
}

// NewEnv returns an Env, substituting empty defaults for nil arguments.
func NewEnv(ctx context.Context, vars Variables) *Env {
	if ctx == nil {
		ctx = context.Background()
	}
	if vars == nil {
		vars = NewVariables()
	}
	return &Env{Ctx: ctx, Vars: vars}
}

// WithContext returns a copy of env that carries ctx. The receiver is not
// modified, so callers that scoped a value into ctx get it back by dropping
// the copy.
func (env *Env) WithContext(ctx context.Context) *Env {
	clone := *env
	clone.Ctx = ctx
	return &clone
}

// Function is a named operation the parser can call.
type Function interface {
	Signature() Signature
	Call(env *Env, args []Value) (Value, error)
}

// Brancher is implemented by functions that choose which of their argument
// subtrees runs. Branch returns the deterministic variant of the chosen
// subtree; argument subtrees it does not choose are never evaluated.
type Brancher interface {
	Function
	Branch(env *Env, args []Node) (Node, error)
}

// FunctionFunc adapts a plain function to Function.
type FunctionFunc struct {
	Sig  Signature
	Impl func(env *Env, args []Value) (Value, error)
}

// NewFunction wraps impl under sig.
func NewFunction(sig Signature, impl func(env *Env, args []Value) (Value, error)) *FunctionFunc {
	return &FunctionFunc{Sig: sig, Impl: impl}
}

// Signature implements Function.
func (f *FunctionFunc) Signature() Signature { return f.Sig }

// Call implements Function.
func (f *FunctionFunc) Call(env *Env, args []Value) (Value, error) {
	return f.Impl(env, args)
}

// Catalog is an immutable set of functions keyed by exact name.
type Catalog struct {
	fns map[string]Function
}

// NewCatalog builds a catalog. Names are case-sensitive and must be unique.
func NewCatalog(fns ...Function) (*Catalog, error) {
	c := &Catalog{fns: make(map[string]Function, len(fns))}
	for _, fn := range fns {
		if fn == nil {
			return nil, fmt.Errorf("catalog: nil function")
		}
		sig := fn.Signature()
		if sig.Name == "" {
			return nil, fmt.Errorf("catalog: function name is required")
		}
		if sig.MaxArgs != Unbounded && sig.MaxArgs < sig.MinArgs {
			return nil, fmt.Errorf("catalog: %s: max arguments below min", sig.Name)
		}
		if _, exists := c.fns[sig.Name]; exists {
			return nil, fmt.Errorf("catalog: duplicate function %q", sig.Name)
		}
		c.fns[sig.Name] = fn
	}
	return c, nil
}

// Lookup returns the function registered under name.
func (c *Catalog) Lookup(name string) (Function, bool) {
	if c == nil {
		return nil, false
	}
	fn, ok := c.fns[name]
	return fn, ok
}

// Signatures lists every entry, sorted by name.
func (c *Catalog) Signatures() []Signature {
	if c == nil {
		return nil
	}
	out := make([]Signature, 0, len(c.fns))
	for _, fn := range c.fns {
		out = append(out, fn.Signature())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of functions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.fns)
}
