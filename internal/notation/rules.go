package notation

// Digits are spelled [0-9] so that non-ASCII digits never form part of a
// dice count.
const (
	num  = `([0-9]+)`
	frac = `([0-9]+[.][0-9]+)`
	mod  = `([-+][0-9]+)`
)

// defaultRules is ordered: a rule that recognizes a longer suffix comes before
// the rule for the shorter form it extends.
var defaultRules = []Rule{
	{Name: "comment", Pattern: `//.*`, Replacement: ``, Samples: []string{"2 + 3 // note"}},

	{
		Name:        "color-rgb",
		Pattern:     `(?<![0-9A-Za-z])#([0-9A-Fa-f])([0-9A-Fa-f])([0-9A-Fa-f])(?![0-9A-Za-z])`,
		Replacement: `0x$1$1$2$2$3$3`,
		Samples:     []string{"#FF0", "#e5e"},
	},
	{
		Name:        "color-rrggbb",
		Pattern:     `(?<![0-9A-Za-z])#([0-9A-Fa-f]{6}(?:[0-9A-Fa-f]{2})?)(?![0-9A-Za-z])`,
		Replacement: `0x$1`,
		Samples:     []string{"#FF0000", "#00FF0000"},
	},

	{Name: "drop", Pattern: `\b` + num + `[dD]` + num + `[dD]` + num + `\b`, Replacement: `drop($1, $2, $3)`, Samples: []string{"10d6d2"}},
	{Name: "drop-one", Pattern: `\b[dD]` + num + `[dD]` + num + `\b`, Replacement: `drop(1, $1, $2)`, Samples: []string{"d6d1"}},

	{Name: "drop-highest", Pattern: `\b` + num + `[dD]` + num + `[dD][hH]` + num + `\b`, Replacement: `dropHighest($1, $2, $3)`, Samples: []string{"4d6dh1"}},
	{Name: "drop-highest-one", Pattern: `\b[dD]` + num + `[dD][hH]` + num + `\b`, Replacement: `dropHighest(1, $1, $2)`, Samples: []string{"d6dh1"}},

	{Name: "keep", Pattern: `\b` + num + `[dD]` + num + `[kK]` + num + `\b`, Replacement: `keep($1, $2, $3)`, Samples: []string{"10d6k8"}},
	{Name: "keep-one", Pattern: `\b[dD]` + num + `[kK]` + num + `\b`, Replacement: `keep(1, $1, $2)`, Samples: []string{"d6k1"}},

	{Name: "keep-lowest", Pattern: `\b` + num + `[dD]` + num + `[kK][lL]` + num + `\b`, Replacement: `keepLowest($1, $2, $3)`, Samples: []string{"4d6kl3"}},
	{Name: "keep-lowest-one", Pattern: `\b[dD]` + num + `[kK][lL]` + num + `\b`, Replacement: `keepLowest(1, $1, $2)`, Samples: []string{"d6kl1"}},

	{Name: "reroll", Pattern: `\b` + num + `[dD]` + num + `[rR]` + num + `\b`, Replacement: `reroll($1, $2, $3)`, Samples: []string{"4d6r2"}},
	{Name: "reroll-one", Pattern: `\b[dD]` + num + `[rR]` + num + `\b`, Replacement: `reroll(1, $1, $2)`, Samples: []string{"d6r2"}},

	{Name: "success", Pattern: `\b` + num + `[dD]` + num + `[sS]` + num + `\b`, Replacement: `success($1, $2, $3)`, Samples: []string{"10d6s4"}},
	{Name: "success-one", Pattern: `\b[dD]` + num + `[sS]` + num + `\b`, Replacement: `success(1, $1, $2)`, Samples: []string{"d6s4"}},

	{Name: "exploding-success", Pattern: `\b` + num + `[dD]` + num + `[eE][sS]` + num + `\b`, Replacement: `explodingSuccess($1, $2, $3)`, Samples: []string{"10d4es6"}},
	{Name: "exploding-success-one", Pattern: `\b[dD]` + num + `[eE][sS]` + num + `\b`, Replacement: `explodingSuccess(1, $1, $2)`, Samples: []string{"d4es6"}},
	{Name: "exploding-success-d6", Pattern: `\b` + num + `[eE][sS]` + num + `\b`, Replacement: `explodingSuccess($1, 6, $2)`, Samples: []string{"10es9"}},

	{Name: "open-test", Pattern: `\b` + num + `[dD]` + num + `[oO]\b`, Replacement: `openTest($1, $2)`, Samples: []string{"10d4o"}},
	{Name: "open-test-one", Pattern: `\b[dD]` + num + `[oO]\b`, Replacement: `openTest(1, $1)`, Samples: []string{"d4o"}},
	{Name: "open-test-d6", Pattern: `\b` + num + `[oO]\b`, Replacement: `openTest($1, 6)`, Samples: []string{"10o"}},

	{Name: "explode", Pattern: `\b` + num + `[dD]` + num + `[eE]\b`, Replacement: `explode($1, $2)`, Samples: []string{"10d6e"}},
	{Name: "explode-one", Pattern: `\b[dD]` + num + `[eE]\b`, Replacement: `explode(1, $1)`, Samples: []string{"d6e"}},

	{Name: "hero-half", Pattern: `\b` + frac + `[dD]` + num + `[hH]\b`, Replacement: `hero($1, $2)`, Samples: []string{"4.5d6h"}},
	{Name: "hero", Pattern: `\b` + num + `[dD]` + num + `[hH]\b`, Replacement: `hero($1, $2)`, Samples: []string{"4d6h"}},
	{Name: "hero-one", Pattern: `\b[dD]` + num + `[hH]\b`, Replacement: `hero(1, $1)`, Samples: []string{"d6h"}},
	{Name: "hero-body-half", Pattern: `\b` + frac + `[dD]` + num + `[bB]\b`, Replacement: `herobody($1, $2)`, Samples: []string{"4.5d6b"}},
	{Name: "hero-body", Pattern: `\b` + num + `[dD]` + num + `[bB]\b`, Replacement: `herobody($1, $2)`, Samples: []string{"4d6b"}},
	{Name: "hero-body-one", Pattern: `\b[dD]` + num + `[bB]\b`, Replacement: `herobody(1, $1)`, Samples: []string{"d6b"}},

	{Name: "hero-killing-half-mod", Pattern: `\b` + frac + `[dD]` + num + `[hH][kK]` + mod + `\b`, Replacement: `herokilling($1, $2, $3)`, Samples: []string{"2.5d6hk+1"}},
	{Name: "hero-killing-half", Pattern: `\b` + frac + `[dD]` + num + `[hH][kK]\b`, Replacement: `herokilling($1, $2, 0)`, Samples: []string{"2.5d6hk"}},
	{Name: "hero-killing-mod", Pattern: `\b` + num + `[dD]` + num + `[hH][kK]` + mod + `\b`, Replacement: `herokilling($1, $2, $3)`, Samples: []string{"2d6hk-1"}},
	{Name: "hero-killing", Pattern: `\b` + num + `[dD]` + num + `[hH][kK]\b`, Replacement: `herokilling($1, $2, 0)`, Samples: []string{"2d6hk"}},
	{Name: "hero-killing-one-mod", Pattern: `\b[dD]` + num + `[hH][kK]` + mod + `\b`, Replacement: `herokilling(1, $1, $2)`, Samples: []string{"d6hk+1"}},
	{Name: "hero-killing-one", Pattern: `\b[dD]` + num + `[hH][kK]\b`, Replacement: `herokilling(1, $1, 0)`, Samples: []string{"d6hk"}},

	{Name: "hero-killing2-half-mod", Pattern: `\b` + frac + `[dD]` + num + `[hH][kK]2` + mod + `\b`, Replacement: `herokilling2($1, $2, $3)`, Samples: []string{"2.5d6hk2+1"}},
	{Name: "hero-killing2-half", Pattern: `\b` + frac + `[dD]` + num + `[hH][kK]2\b`, Replacement: `herokilling2($1, $2, 0)`, Samples: []string{"2.5d6hk2"}},
	{Name: "hero-killing2-mod", Pattern: `\b` + num + `[dD]` + num + `[hH][kK]2` + mod + `\b`, Replacement: `herokilling2($1, $2, $3)`, Samples: []string{"2d6hk2-1"}},
	{Name: "hero-killing2", Pattern: `\b` + num + `[dD]` + num + `[hH][kK]2\b`, Replacement: `herokilling2($1, $2, 0)`, Samples: []string{"2d6hk2"}},
	{Name: "hero-killing2-one-mod", Pattern: `\b[dD]` + num + `[hH][kK]2` + mod + `\b`, Replacement: `herokilling2(1, $1, $2)`, Samples: []string{"d6hk2+1"}},
	{Name: "hero-killing2-one", Pattern: `\b[dD]` + num + `[hH][kK]2\b`, Replacement: `herokilling2(1, $1, 0)`, Samples: []string{"d6hk2"}},

	{Name: "hero-multiplier-mod", Pattern: `\b` + num + `[dD]` + num + `[hH][mM]` + mod + `\b`, Replacement: `heromultiplier($1, $2, $3)`, Samples: []string{"2d6hm+1"}},
	{Name: "hero-multiplier-one-mod", Pattern: `\b[dD]` + num + `[hH][mM]` + mod + `\b`, Replacement: `heromultiplier(1, $1, $2)`, Samples: []string{"d6hm+1"}},
	{Name: "hero-multiplier", Pattern: `\b` + num + `[dD]` + num + `[hH][mM]\b`, Replacement: `heromultiplier($1, $2, 0)`, Samples: []string{"2d6hm"}},
	{Name: "hero-multiplier-one", Pattern: `\b[dD]` + num + `[hH][mM]\b`, Replacement: `heromultiplier(1, $1, 0)`, Samples: []string{"d6hm"}},
	{Name: "hero-multiplier-last", Pattern: `\b` + num + `[hH][mM]\b`, Replacement: `heromultiplier(0, 0, $1)`, Samples: []string{"2hm"}},

	{Name: "roll", Pattern: `\b` + num + `[dD]` + num + `\b`, Replacement: `roll($1, $2)`, Samples: []string{"4d6", "100+4d1*10"}},
	{Name: "roll-one", Pattern: `\b[dD]` + num + `\b`, Replacement: `roll(1, $1)`, Samples: []string{"d20"}},

	{Name: "fudge", Pattern: `\b` + num + `[dD][fF]\b`, Replacement: `fudge($1)`, Samples: []string{"4dF"}},
	{Name: "fudge-one", Pattern: `\b[dD][fF]\b`, Replacement: `fudge(1)`, Samples: []string{"df"}},

	{Name: "ubiquity", Pattern: `\b` + num + `[dD][uU]\b`, Replacement: `ubiquity($1)`, Samples: []string{"10du"}},
	{Name: "ubiquity-one", Pattern: `\b[dD][uU]\b`, Replacement: `ubiquity(1)`, Samples: []string{"dU"}},

	{Name: "sr4-edge-gremlins", Pattern: `\b` + num + `[sS][rR]4[eE][gG]` + num + `\b`, Replacement: `sr4e($1, $2)`, Samples: []string{"5sr4eg2"}},
	{Name: "sr4-edge", Pattern: `\b` + num + `[sS][rR]4[eE]\b`, Replacement: `sr4e($1)`, Samples: []string{"5sr4e"}},
	{Name: "sr4-gremlins", Pattern: `\b` + num + `[sS][rR]4[gG]` + num + `\b`, Replacement: `sr4($1, $2)`, Samples: []string{"5sr4g2"}},
	{Name: "sr4", Pattern: `\b` + num + `[sS][rR]4\b`, Replacement: `sr4($1)`, Samples: []string{"5sr4"}},

	{Name: "sub-with-lower", Pattern: `\b` + num + `[dD]` + num + `[sS]` + num + `[lL]` + num + `\b`, Replacement: `rollSubWithLower($1, $2, $3, $4)`, Samples: []string{"4d6s1l2"}},
	{Name: "sub-with-lower-one", Pattern: `\b[dD]` + num + `[sS]` + num + `[lL]` + num + `\b`, Replacement: `rollSubWithLower(1, $1, $2, $3)`, Samples: []string{"d6s1l2"}},

	{Name: "add-with-upper", Pattern: `\b` + num + `[dD]` + num + `[aA]` + num + `[uU]` + num + `\b`, Replacement: `rollAddWithUpper($1, $2, $3, $4)`, Samples: []string{"4d6a1u6"}},
	{Name: "add-with-upper-one", Pattern: `\b[dD]` + num + `[aA]` + num + `[uU]` + num + `\b`, Replacement: `rollAddWithUpper(1, $1, $2, $3)`, Samples: []string{"d6a1u6"}},

	{Name: "with-lower", Pattern: `\b` + num + `[dD]` + num + `[lL]` + num + `\b`, Replacement: `rollWithLower($1, $2, $3)`, Samples: []string{"4d6l2"}},
	{Name: "with-lower-one", Pattern: `\b[dD]` + num + `[lL]` + num + `\b`, Replacement: `rollWithLower(1, $1, $2)`, Samples: []string{"d6l2"}},

	{Name: "with-upper", Pattern: `\b` + num + `[dD]` + num + `[uU]` + num + `\b`, Replacement: `rollWithUpper($1, $2, $3)`, Samples: []string{"4d6u5"}},
	{Name: "with-upper-one", Pattern: `\b[dD]` + num + `[uU]` + num + `\b`, Replacement: `rollWithUpper(1, $1, $2)`, Samples: []string{"d6u5"}},

	{Name: "add-with-lower-mod", Pattern: `\b` + num + `[dD]` + num + `[qQ]#([-+]?[0-9]+)\b`, Replacement: `rollAddWithLower($1, $2, $3, 1)`, Samples: []string{"2d6q#+3", "2d6q#-1"}},
	{Name: "add-with-lower-one-mod", Pattern: `\b[dD]` + num + `[qQ]#([-+]?[0-9]+)\b`, Replacement: `rollAddWithLower(1, $1, $2, 1)`, Samples: []string{"d6q#2"}},
	{Name: "add-with-lower", Pattern: `\b` + num + `[dD]` + num + `[qQ]\b`, Replacement: `rollAddWithLower($1, $2, 0, 1)`, Samples: []string{"2d6q"}},
	{Name: "add-with-lower-one", Pattern: `\b[dD]` + num + `[qQ]\b`, Replacement: `rollAddWithLower(1, $1, 0, 1)`, Samples: []string{"d6q"}},
}

// DefaultRules returns a copy of the built-in rule list, in table order.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	for i, r := range defaultRules {
		r.Samples = append([]string(nil), r.Samples...)
		out[i] = r
	}
	return out
}
