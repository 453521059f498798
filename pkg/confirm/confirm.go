// Package confirm guards destructive actions behind a yes/no gate.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirmer is consulted before any destructive action. A false result
// aborts only the action it was asked about, never the whole run.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// Unattended approves everything without blocking.
type Unattended struct{}

// Confirm always returns true
func (Unattended) Confirm(string) (bool, error) { return true, nil }

// Interactive blocks on a yes/no answer read from In, re-prompting
// indefinitely on anything it does not recognize.
type Interactive struct {
	In  io.Reader
	Out io.Writer

	// One scanner for the gate's lifetime: a fresh scanner per call
	// would drop input the previous call buffered ahead.
	scanner *bufio.Scanner
}

// NewInteractive returns a gate reading from stdin and prompting on
// stderr. It fails when stdin is not a terminal: blocking on a prompt
// nobody can answer would hang an unattended run forever.
func NewInteractive() (*Interactive, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("stdin is not a terminal; use --unattended for non-interactive runs")
	}
	return &Interactive{In: os.Stdin, Out: os.Stderr}, nil
}

// Confirm prompts until it reads a recognized affirmative or negative
// answer.
func (i *Interactive) Confirm(prompt string) (bool, error) {
	if i.scanner == nil {
		i.scanner = bufio.NewScanner(i.In)
	}
	for {
		if _, err := fmt.Fprintf(i.Out, "%s [y/n]: ", prompt); err != nil {
			return false, err
		}
		if !i.scanner.Scan() {
			if err := i.scanner.Err(); err != nil {
				return false, err
			}
			return false, io.ErrUnexpectedEOF
		}
		switch strings.ToLower(strings.TrimSpace(i.scanner.Text())) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		// Anything else: ask again.
	}
}
