// Package roll evaluates dice expressions from arguments, piped input or an
// interactive shell.
package roll

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
	"golang.org/x/text/message"

	"github.com/louisbranch/dicenotation/internal/notation"
	entrypoint "github.com/louisbranch/dicenotation/internal/platform/cmd"
	apperrors "github.com/louisbranch/dicenotation/internal/platform/errors"
	"github.com/louisbranch/dicenotation/internal/platform/i18n/catalog"
	"github.com/louisbranch/dicenotation/internal/roller"
)

// ErrRollsFailed reports that at least one piped expression failed.
var ErrRollsFailed = errors.New("one or more expressions failed")

// Config holds roll command configuration.
type Config struct {
	Seed      string `env:"ROLL_SEED"`
	RulesPath string `env:"ROLL_RULES_PATH"`
	Locale    string `env:"ROLL_LOCALE"`
	Detail    bool   `env:"ROLL_DETAIL"`
	History   bool   `env:"ROLL_HISTORY"`
	// Expression is the positional arguments joined by spaces.
	Expression string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Seed, "seed", cfg.Seed, "seed for a reproducible roll sequence")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "YAML notation rules replacing the defaults")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for messages, e.g. pt-BR")
	fs.BoolVar(&cfg.Detail, "detail", cfg.Detail, "print the expression with each roll replaced by its value")
	fs.BoolVar(&cfg.History, "history", cfg.History, "print every dice call")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Expression = strings.TrimSpace(strings.Join(fs.Args(), " "))
	return cfg, nil
}

// Run evaluates cfg.Expression when set. Otherwise it starts a shell when in
// is a terminal, or evaluates in one line at a time.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, errOut io.Writer) error {
	if in == nil {
		in = strings.NewReader("")
	}
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	s, err := newSession(cfg, out, errOut)
	if err != nil {
		return err
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRoll, func(ctx context.Context) error {
		switch {
		case cfg.Expression != "":
			if err := s.roll(ctx, cfg.Expression); err != nil {
				return err
			}
			if s.detail {
				s.println("core.roll.seed", strconv.FormatInt(s.evaluator.Seed(), 10))
			}
			return nil
		case isTerminal(in):
			return s.repl(ctx)
		default:
			return s.rollLines(ctx, in)
		}
	})
}

type session struct {
	evaluator *roller.Evaluator
	printer   *message.Printer
	locale    string
	detail    bool
	history   bool
	out       io.Writer
	errOut    io.Writer
}

func newSession(cfg Config, out, errOut io.Writer) (*session, error) {
	var opts []roller.Option
	if path := strings.TrimSpace(cfg.RulesPath); path != "" {
		table, err := notation.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		opts = append(opts, roller.WithTable(table))
	}
	if raw := strings.TrimSpace(cfg.Seed); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse seed %q: %w", raw, err)
		}
		opts = append(opts, roller.WithSeed(seed))
	}
	evaluator, err := roller.New(opts...)
	if err != nil {
		return nil, err
	}

	bundle := catalog.Default()
	locale := bundle.Match(cfg.Locale, localeFromEnv())
	return &session{
		evaluator: evaluator,
		printer:   bundle.Printer(locale),
		locale:    locale,
		detail:    cfg.Detail,
		history:   cfg.History,
		out:       out,
		errOut:    errOut,
	}, nil
}

// localeFromEnv turns a POSIX locale such as pt_BR.UTF-8 into a language tag.
func localeFromEnv() string {
	value := os.Getenv("LC_ALL")
	if value == "" {
		value = os.Getenv("LANG")
	}
	value, _, _ = strings.Cut(value, ".")
	if value == "C" || value == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(value, "_", "-")
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *session) println(key string, args ...any) {
	fmt.Fprintln(s.out, s.printer.Sprintf(key, args...))
}

// roll evaluates raw and prints its value. The returned error carries the
// localized message.
func (s *session) roll(ctx context.Context, raw string) error {
	res, err := s.evaluator.Evaluate(ctx, raw)
	if err != nil {
		msg := apperrors.UserMessage(roller.Classify(raw, err), s.locale)
		return errors.New(s.printer.Sprintf("core.roll.error", msg))
	}
	if s.detail {
		s.println("core.roll.detail", res.Detail, res.Value.String())
	} else {
		s.println("core.roll.value", res.Value.String())
	}
	if s.history {
		for _, entry := range res.Rolls {
			s.println("core.roll.history_entry", entry.String())
		}
	}
	return nil
}

func (s *session) rollLines(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	failed := false
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := s.roll(ctx, line); err != nil {
			fmt.Fprintln(s.errOut, err)
			failed = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if failed {
		return ErrRollsFailed
	}
	return nil
}
