// Package styles colors the short notices the shell prints around commands.
package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	stdout = termenv.NewOutput(os.Stdout)
	stderr = termenv.NewOutput(os.Stderr)

	// ERROR styles fatal driver errors written to stderr.
	ERROR = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("9")).
			String()
	}
	// NOTICE styles loop notices such as the interrupt and exit messages.
	NOTICE = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("8")).
			String()
	}
)
