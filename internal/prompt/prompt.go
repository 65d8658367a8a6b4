// Package prompt reads short answers from a terminal-like reader.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fakeyudi/paws/internal/extract"
)

// Prompter asks questions on w and reads one line per answer from r.
type Prompter struct {
	r *bufio.Reader
	w io.Writer
}

// New returns a Prompter reading from r and writing questions to w.
func New(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{r: bufio.NewReader(r), w: w}
}

// readLine returns the trimmed answer. A final unterminated line is accepted;
// io.EOF is only returned when nothing was typed.
func (p *Prompter) readLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(question string, defaultVal bool) (bool, error) {
	hint := "y/N"
	if defaultVal {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.w, "%s [%s]: ", question, hint)
		line, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return defaultVal, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.w, "Please answer y or n.")
	}
}

// ConfirmOverwrite implements extract.Prompter. Empty input means no.
func (p *Prompter) ConfirmOverwrite(path string) (extract.Choice, error) {
	for {
		fmt.Fprintf(p.w, "File exists: %s\nOverwrite? [y/N/a(ll)/s(kip all)/q(uit)]: ", path)
		line, err := p.readLine()
		if err != nil {
			fmt.Fprintln(p.w)
			return extract.ChoiceQuit, err
		}
		switch strings.ToLower(line) {
		case "", "n", "no":
			return extract.ChoiceNo, nil
		case "y", "yes":
			return extract.ChoiceYes, nil
		case "a", "all":
			return extract.ChoiceAll, nil
		case "s", "skip", "skip all":
			return extract.ChoiceSkipAll, nil
		case "q", "quit":
			return extract.ChoiceQuit, nil
		}
		fmt.Fprintln(p.w, "Invalid choice.")
	}
}
