package writer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter answers yes/no questions during a write
type Prompter interface {
	Confirm(question string) (bool, error)
}

// TerminalPrompter asks on out and reads the answer from in
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter returns a prompter reading answers line by line
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

// Confirm accepts "y" and "yes" in any case. Anything else, including an
// empty line or end of input, is a refusal.
func (p *TerminalPrompter) Confirm(question string) (bool, error) {
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return false, err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// IsInteractive reports whether stdin is attached to a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// StdPrompter returns a terminal prompter on stdin/stdout, or nil when
// stdin is not a terminal
func StdPrompter() Prompter {
	if !IsInteractive() {
		return nil
	}
	return NewTerminalPrompter(os.Stdin, os.Stdout)
}
