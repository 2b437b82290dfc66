package config

import (
	"fmt"
	"os"
)

// Exitf reports a fatal error on stderr and terminates the process with a
// non-zero status. Only command entry points should call it; library code
// returns errors instead.
func Exitf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
	os.Exit(1)
}
