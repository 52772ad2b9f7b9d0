// Package roller evaluates dice expressions: it rewrites shorthand, parses the
// canonical text, rolls, and reports the value together with a detail text
// showing the numbers rolled.
package roller

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/dicenotation/internal/dice"
	"github.com/louisbranch/dicenotation/internal/expression"
	"github.com/louisbranch/dicenotation/internal/notation"
	"github.com/louisbranch/dicenotation/internal/random"
	"github.com/louisbranch/dicenotation/internal/rollctx"
)

const tracerName = "github.com/louisbranch/dicenotation/internal/roller"

// Result is the outcome of one evaluation.
type Result struct {
	// Expression is the text as the caller wrote it.
	Expression string
	// Canonical is Expression after the notation rewrite.
	Canonical string
	// Detail is the canonical form with every numeric roll replaced by the
	// number it produced.
	Detail string
	Value  expression.Value
	Rolls  []rollctx.Entry
	// Seed is the seed the evaluator's stream was last positioned with.
	Seed int64
}

type options struct {
	table  *notation.Table
	vars   expression.Variables
	seed   *int64
	extra  []expression.Function
	tracer trace.Tracer
}

// Option configures an Evaluator.
type Option func(*options)

// WithTable replaces the default notation table.
func WithTable(table *notation.Table) Option {
	return func(o *options) { o.table = table }
}

// WithVariables sets the store named values are read from and assigned to.
func WithVariables(vars expression.Variables) Option {
	return func(o *options) { o.vars = vars }
}

// WithSeed positions the stream at seed instead of a random one.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = &seed }
}

// WithFunctions adds functions to the catalog.
func WithFunctions(fns ...expression.Function) Option {
	return func(o *options) { o.extra = append(o.extra, fns...) }
}

// WithTracer sets the tracer evaluations are recorded with.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// Evaluator evaluates expressions against one stream. It is safe for
// concurrent use; evaluations are serialized.
type Evaluator struct {
	mu      sync.Mutex
	opts    options
	catalog *expression.Catalog
	parser  *expression.Parser
	stream  *random.Stream
}

// New builds an Evaluator. Without WithSeed the stream starts from a seed
// read from crypto/rand.
func New(opts ...Option) (*Evaluator, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.table == nil {
		o.table = notation.Default()
	}
	if o.vars == nil {
		o.vars = expression.NewVariables()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	if o.seed == nil {
		seed, err := random.NewSeed()
		if err != nil {
			return nil, fmt.Errorf("roller: seed: %w", err)
		}
		o.seed = &seed
	}

	catalog, err := dice.NewCatalog(append([]expression.Function{ifFunction{}}, o.extra...)...)
	if err != nil {
		return nil, fmt.Errorf("roller: %w", err)
	}
	return &Evaluator{
		opts:    o,
		catalog: catalog,
		parser:  expression.NewParser(catalog, o.table),
		stream:  random.NewStream(*o.seed),
	}, nil
}

// Fork returns an Evaluator positioned at seed that shares e's catalog. The
// table and variables are shared too unless opts replace them; other options
// are ignored.
func (e *Evaluator) Fork(seed int64, opts ...Option) *Evaluator {
	o := e.opts
	for _, opt := range opts {
		opt(&o)
	}
	o.seed = &seed
	o.extra = e.opts.extra
	parser := e.parser
	if o.table != e.opts.table {
		parser = expression.NewParser(e.catalog, o.table)
	}
	return &Evaluator{
		opts:    o,
		catalog: e.catalog,
		parser:  parser,
		stream:  random.NewStream(seed),
	}
}

// Reseed restarts the stream at seed.
func (e *Evaluator) Reseed(seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stream.Reseed(seed)
}

// Seed returns the seed the stream was last positioned with.
func (e *Evaluator) Seed() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stream.Seed()
}

// Table returns the notation table.
func (e *Evaluator) Table() *notation.Table { return e.opts.table }

// Catalog returns the functions expressions may call.
func (e *Evaluator) Catalog() *expression.Catalog { return e.catalog }

// Variables returns the variable store.
func (e *Evaluator) Variables() expression.Variables { return e.opts.vars }

// Canonical rewrites raw without evaluating it.
func (e *Evaluator) Canonical(raw string) string {
	return e.parser.Rewrite(raw)
}

// heldKey marks a context whose call stack already holds the evaluator lock.
type heldKey struct{ e *Evaluator }

func (e *Evaluator) holds(ctx context.Context) bool {
	return ctx.Value(heldKey{e}) != nil
}

// Evaluate rewrites, parses and rolls raw.
//
// The roll context installed in ctx, if any, is left as it was; the
// evaluation records its rolls in a fresh one. A function that evaluates
// another expression on the same Evaluator with the ctx it was given runs
// without waiting for the lock its caller holds.
func (e *Evaluator) Evaluate(ctx context.Context, raw string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := e.opts.tracer.Start(ctx, "roller.Evaluate",
		trace.WithAttributes(attribute.Int("roller.expression_length", len(raw))))
	defer span.End()

	res, err := e.evaluate(ctx, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.Int("roller.roll_count", len(res.Rolls)))
	return res, nil
}

func (e *Evaluator) evaluate(ctx context.Context, raw string) (Result, error) {
	canonical := e.parser.Rewrite(raw)

	if !e.holds(ctx) {
		e.mu.Lock()
		defer e.mu.Unlock()
		ctx = context.WithValue(ctx, heldKey{e}, true)
	}

	var rc *rollctx.Context
	if parent, ok := rollctx.From(ctx); ok {
		rc = rollctx.Nested(parent, e.stream)
	} else {
		rc = rollctx.New(e.stream)
	}
	env := expression.NewEnv(rollctx.With(ctx, rc), e.opts.vars)

	xp, err := e.parser.ParseCanonical(canonical)
	if err != nil {
		return Result{}, err
	}
	det, err := xp.Deterministic(env)
	if err != nil {
		return Result{}, err
	}
	value, err := det.Evaluate(env)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Expression: raw,
		Canonical:  canonical,
		Detail:     det.Format(),
		Value:      value,
		Rolls:      rc.History(),
		Seed:       e.stream.Seed(),
	}, nil
}
