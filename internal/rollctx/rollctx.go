// Package rollctx holds the per-evaluation roll state: the stream dice draw
// from and the ordered history of what was rolled.
//
// A Context travels inside a context.Context. Installing a new one returns a
// derived context.Context, so the previous Context is back in scope as soon
// as the caller drops the derived value, whether the evaluation succeeded or
// not.
package rollctx

import (
	"context"
	"strconv"
	"strings"

	"github.com/louisbranch/dicenotation/internal/random"
)

// Entry records one dice function call.
type Entry struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
	Values   []int    `json:"values"`
	Result   string   `json:"result"`
}

// String renders the entry as "roll(4, 6): 4, 4, 4, 3 => 15".
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Function)
	b.WriteByte('(')
	b.WriteString(strings.Join(e.Args, ", "))
	b.WriteByte(')')
	if len(e.Values) > 0 {
		b.WriteString(": ")
		for i, v := range e.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Itoa(v))
		}
	}
	b.WriteString(" => ")
	b.WriteString(e.Result)
	return b.String()
}

// Context is the roll state of one evaluation. It is used by a single call
// stack at a time.
type Context struct {
	stream  *random.Stream
	parent  *Context
	history []Entry
	pending []int
}

// New returns an empty Context drawing from stream.
func New(stream *random.Stream) *Context {
	return &Context{stream: stream}
}

// Nested returns an empty Context drawing from stream that remembers parent
// as the Context it replaced. Its history is never merged.
func Nested(parent *Context, stream *random.Stream) *Context {
	return &Context{stream: stream, parent: parent}
}

// Child returns a nested Context that shares c's stream. Its history reaches
// c only through Merge.
func (c *Context) Child() *Context {
	return &Context{stream: c.stream, parent: c}
}

// Parent returns the Context c was created under, or nil.
func (c *Context) Parent() *Context {
	return c.parent
}

// Merge appends c's history to its parent's. It is a no-op for a root
// Context.
func (c *Context) Merge() {
	if c.parent == nil {
		return
	}
	c.parent.history = append(c.parent.history, c.history...)
	c.history = nil
}

// Between draws a value in [lo, hi] and records it for the next Commit.
func (c *Context) Between(lo, hi int) int {
	v := c.stream.Between(lo, hi)
	c.pending = append(c.pending, v)
	return v
}

// Die rolls one die with the given number of sides.
func (c *Context) Die(sides int) int {
	return c.Between(1, sides)
}

// Commit closes the current call: everything drawn since the previous Commit
// becomes one history entry.
func (c *Context) Commit(function string, args []string, result string) Entry {
	e := Entry{
		Function: function,
		Args:     append([]string(nil), args...),
		Values:   c.pending,
		Result:   result,
	}
	c.pending = nil
	c.history = append(c.history, e)
	return e
}

// Abandon forgets the values drawn since the previous Commit. It is used when
// a call fails after it started rolling.
func (c *Context) Abandon() {
	c.pending = nil
}

// History returns the entries committed so far, in call order.
func (c *Context) History() []Entry {
	out := make([]Entry, len(c.history))
	copy(out, c.history)
	return out
}

// Len returns the number of committed entries.
func (c *Context) Len() int {
	return len(c.history)
}

type contextKey struct{}

// With returns a context carrying rc.
func With(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// From returns the Context installed in ctx, if any.
func From(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(contextKey{}).(*Context)
	return rc, ok && rc != nil
}
