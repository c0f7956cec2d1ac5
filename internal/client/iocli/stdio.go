package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio is the real terminal implementation of IO. Prompts go to stdout and
// passwords are read without echo when stdin is a terminal.
type Stdio struct {
	in  *bufio.Reader
	out io.Writer
}

func NewStdio() *Stdio {
	return &Stdio{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (s *Stdio) Println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword suppresses echo on a terminal. When stdin is a pipe, as in
// scripted use, it falls back to a plain line read.
func (s *Stdio) ReadPassword(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := s.in.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(s.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
