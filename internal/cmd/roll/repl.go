package roll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

const (
	prompt      = "roll> "
	historyFile = ".dicenotation_history"
)

func (s *session) repl(ctx context.Context) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if path := historyPath(); path != "" {
		if f, err := os.Open(path); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(path); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	s.println("core.repl.banner")
	for ctx.Err() == nil {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			if s.command(line) {
				return nil
			}
			continue
		}
		if err := s.roll(ctx, line); err != nil {
			fmt.Fprintln(s.errOut, err)
		}
	}
	return nil
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, historyFile)
}

// command runs a shell command line and reports whether the shell should
// exit.
func (s *session) command(line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		s.println("core.repl.help")
	case ":history":
		s.history = !s.history
		if s.history {
			s.println("core.repl.history_on")
		} else {
			s.println("core.repl.history_off")
		}
	case ":detail":
		s.detail = !s.detail
	case ":seed":
		if len(fields) < 2 {
			s.println("core.roll.seed", strconv.FormatInt(s.evaluator.Seed(), 10))
			return false
		}
		seed, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			s.println("core.repl.unknown_command", line)
			return false
		}
		s.evaluator.Reseed(seed)
		s.println("core.repl.reseeded", fields[1])
	case ":rules":
		for _, rule := range s.evaluator.Table().Rules() {
			fmt.Fprintf(s.out, "%-16s %s => %s\n", rule.Name, rule.Pattern, rule.Replacement)
		}
	default:
		s.println("core.repl.unknown_command", fields[0])
	}
	return false
}
