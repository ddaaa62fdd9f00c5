package util

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// DefaultErrorExitCode is the exit code used when a command fails.
const DefaultErrorExitCode = 1

// CheckErr prints a user friendly error to STDERR and exits with a non-zero
// exit code. Unrecognized errors will be printed with an "error: " prefix.
func CheckErr(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if msg != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("error:"), msg)
	}
	os.Exit(DefaultErrorExitCode)
}
