package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ErrNoInput is returned when stdin is closed before a line is read.
var ErrNoInput = errors.New("no input")

// Prompter reads answers line by line. All prompts in a process must share
// one Prompter so buffered input is not lost between them.
type Prompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter returns a Prompter reading in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

var stdPrompter = NewPrompter(os.Stdin, os.Stdout)

// Stdin returns the process-wide Prompter on stdin/stdout.
func Stdin() *Prompter { return stdPrompter }

// ReadLine prints prompt and returns the trimmed line.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "", ErrNoInput
		}
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. Anything but y/yes is no.
func (p *Prompter) Confirm(prompt string) bool {
	return p.yes(StyleWarning.Render(prompt))
}

// ConfirmDanger is like Confirm but styled with the error color.
func (p *Prompter) ConfirmDanger(prompt string) bool {
	return p.yes(StyleError.Render("⚠ " + prompt))
}

func (p *Prompter) yes(styled string) bool {
	line, err := p.ReadLine(styled + " [y/N]: ")
	if err != nil {
		return false
	}
	line = strings.ToLower(line)
	return line == "y" || line == "yes"
}

// Input asks for a value, returning def on an empty answer.
func (p *Prompter) Input(prompt, def string) (string, error) {
	label := StyleValue.Render(prompt)
	if def != "" {
		label += " " + StyleMeta.Render("("+def+")")
	}
	line, err := p.ReadLine(label + ": ")
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

