package setup

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompt returns a ConfirmFunc that asks on out and reads one line from in.
// Only "y" or "yes" (any case) confirm; an empty answer, EOF or a read
// error declines.
func Prompt(in io.Reader, out io.Writer) ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(question string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", question)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
