package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from the command's input. Passwords are read
// without echo when stdin is a terminal.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	stdin  io.Reader
	isTerm bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	stdin := cmd.InOrStdin()
	isTerm := false
	if f, ok := stdin.(*os.File); ok {
		isTerm = term.IsTerminal(int(f.Fd()))
	}
	return &prompter{
		in:     bufio.NewReader(stdin),
		out:    cmd.OutOrStdout(),
		stdin:  stdin,
		isTerm: isTerm,
	}
}

func (p *prompter) line(label string) string {
	fmt.Fprintf(p.out, "%s: ", label)
	s, _ := p.in.ReadString('\n')
	return strings.TrimSpace(s)
}

func (p *prompter) password(label string) string {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.isTerm {
		b, _ := term.ReadPassword(int(p.stdin.(*os.File).Fd()))
		fmt.Fprintln(p.out)
		return string(b)
	}
	s, _ := p.in.ReadString('\n')
	return strings.TrimRight(s, "\r\n")
}

func (p *prompter) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	s, _ := p.in.ReadString('\n')
	s = strings.TrimSpace(s)
	return s == "y" || s == "Y"
}
