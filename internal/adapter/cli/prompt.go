package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptToken reads a token from in without echoing when in is a terminal.
// Non-terminal input (pipes, redirects) falls back to a plain line read.
func promptToken(in *os.File, out io.Writer) (string, error) {
	if in == nil {
		in = os.Stdin
	}

	fmt.Fprint(out, "GitHub token: ")

	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
