package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the operator for a missing value.
type Prompter interface {
	Prompt(label string) (string, error)
	PromptSecret(label string) (string, error)
}

// TerminalPrompter prompts on out and reads answers from in. Secrets are
// read without echo when in is a terminal.
type TerminalPrompter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:     in,
		out:    out,
		reader: bufio.NewReader(in),
	}
}

func (p *TerminalPrompter) Prompt(label string) (string, error) {
	line, err := p.readLine(label)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptSecret reads a secret. Without a terminal it is read as a plain
// line, keeping surrounding spaces.
func (p *TerminalPrompter) PromptSecret(label string) (string, error) {
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return p.readLine(label)
	}

	fmt.Fprint(p.out, label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// readLine prints label and returns the next line without its line ending.
// A final line without a newline is returned as is; io.EOF is only
// reported once no input is left.
func (p *TerminalPrompter) readLine(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
