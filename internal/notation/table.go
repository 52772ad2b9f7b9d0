// Package notation rewrites dice shorthand such as 4d6h or 10d4es6 into
// canonical function-call syntax.
package notation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/louisbranch/dicenotation/internal/expression/literal"
)

// matchTimeout bounds a single rule application.
const matchTimeout = time.Second

// Rule is one entry of a pattern table.
type Rule struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
	// Replacement may reference capture groups as $1, $2, ...
	Replacement string `yaml:"replacement" json:"replacement"`
	// Samples are inputs the rule is meant to rewrite; the table checks them
	// when it is built.
	Samples []string `yaml:"samples,omitempty" json:"samples,omitempty"`
}

// Table is an ordered, immutable list of compiled rules.
type Table struct {
	rules    []Rule
	compiled []*regexp2.Regexp
}

// RuleAuthoringError reports a table whose rules interfere with each other.
type RuleAuthoringError struct {
	Rule     string
	Sample   string
	Output   string
	Conflict string
	Reason   string
}

func (e *RuleAuthoringError) Error() string {
	msg := fmt.Sprintf("notation rule %q: %s (sample %q", e.Rule, e.Reason, e.Sample)
	if e.Output != "" {
		msg += fmt.Sprintf(", output %q", e.Output)
	}
	if e.Conflict != "" {
		msg += fmt.Sprintf(", conflicting rule %q", e.Conflict)
	}
	return msg + ")"
}

// NewTable compiles rules, in order, and verifies every sample:
//   - the rule matches its own sample;
//   - no earlier rule matches the sample;
//   - neither the rule nor any later rule matches the rewritten sample.
func NewTable(rules []Rule) (*Table, error) {
	if len(rules) == 0 {
		return nil, errors.New("notation table: no rules")
	}
	t := &Table{
		rules:    make([]Rule, len(rules)),
		compiled: make([]*regexp2.Regexp, len(rules)),
	}
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("notation table: rule %d: name is required", i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("notation table: duplicate rule %q", r.Name)
		}
		seen[r.Name] = true
		if r.Pattern == "" {
			return nil, fmt.Errorf("notation table: rule %q: pattern is required", r.Name)
		}
		re, err := regexp2.Compile(r.Pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("notation table: rule %q: %w", r.Name, err)
		}
		re.MatchTimeout = matchTimeout
		r.Samples = append([]string(nil), r.Samples...)
		t.rules[i] = r
		t.compiled[i] = re
	}
	if err := t.check(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) check() error {
	for i, r := range t.rules {
		for _, sample := range r.Samples {
			if !t.matches(i, sample) {
				return &RuleAuthoringError{Rule: r.Name, Sample: sample, Reason: "rule does not match its sample"}
			}
			for j := 0; j < i; j++ {
				if t.matches(j, sample) {
					return &RuleAuthoringError{Rule: r.Name, Sample: sample, Conflict: t.rules[j].Name, Reason: "sample is shadowed by an earlier rule"}
				}
			}
			out, err := t.compiled[i].Replace(sample, r.Replacement, -1, -1)
			if err != nil {
				return fmt.Errorf("notation table: rule %q: %w", r.Name, err)
			}
			for j := i; j < len(t.rules); j++ {
				if t.matches(j, out) {
					return &RuleAuthoringError{Rule: r.Name, Sample: sample, Output: out, Conflict: t.rules[j].Name, Reason: "output is matched again"}
				}
			}
		}
	}
	return nil
}

func (t *Table) matches(i int, text string) bool {
	ok, err := t.compiled[i].MatchString(text)
	return err == nil && ok
}

// Rules returns a copy of the table's rules, in order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		r.Samples = append([]string(nil), r.Samples...)
		out[i] = r
	}
	return out
}

// Len returns the number of rules.
func (t *Table) Len() int { return len(t.rules) }

// Transform rewrites raw into canonical text. Quoted strings are left alone
// and each rule replaces all of its matches exactly once, in table order.
// Text no rule recognizes passes through unchanged.
func (t *Table) Transform(raw string) string {
	text, literals := literal.Remove(raw)
	for i, re := range t.compiled {
		out, err := re.Replace(text, t.rules[i].Replacement, -1, -1)
		if err != nil {
			// Only a timeout can fail here; the rule is skipped.
			continue
		}
		text = out
	}
	return literal.Restore(text, literals)
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := NewTable(defaultRules)
	if err != nil {
		panic(err)
	}
	return t
})

// Default returns the built-in table. It is built once per process.
func Default() *Table {
	return defaultTable()
}
