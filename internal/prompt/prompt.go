// Package prompt abstracts interactive confirmation as an injected
// capability, so the engine's conflict handling is testable without a real
// terminal. Auto-confirm mode is simply a decider that always returns the
// default.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Decider answers confirmation prompts.
type Decider interface {
	// Confirm asks a yes/no question and returns the choice. def is
	// returned on an empty answer.
	Confirm(question string, def bool) bool

	// Interactive reports whether the decider consults a human. Callers
	// use this to avoid printing prompt context (diffs, plans) nobody
	// will read.
	Interactive() bool
}

// Auto is a decider that always accepts the default without asking.
type Auto struct{}

// Confirm returns the default unchanged.
func (Auto) Confirm(_ string, def bool) bool { return def }

// Interactive reports false; Auto never consults a human.
func (Auto) Interactive() bool { return false }

// Terminal is a decider that reads answers from an input stream,
// typically stdin.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminal returns a decider wired to stdin/stdout.
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

// Confirm prints the question with a [Y/n] or [y/N] suffix and reads one
// line. Empty input selects the default.
func (t *Terminal) Confirm(question string, def bool) bool {
	suffix := "[y/N]"
	if def {
		suffix = "[Y/n]"
	}
	fmt.Fprintf(t.Out, "%s %s ", question, suffix)

	reader := bufio.NewReader(t.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return def
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "" {
		return def
	}
	return answer == "y" || answer == "yes"
}

// Interactive reports true.
func (t *Terminal) Interactive() bool { return true }
