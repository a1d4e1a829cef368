// Package printer writes operator-facing terminal output.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// Colour stays on when piped; NO_COLOR turns it off.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects normal and error output. It returns a function that
// restores the previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() { stdout, stderr = prevOut, prevErr }
}

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(stdout, msg)
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(stdout, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(stdout, msg)
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(stdout, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a formatted error with title, explanation and suggestions to
// stderr and returns an error carrying only the title, for Cobra.
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with a block of key/value details, printed in
// key order.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(stderr, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(stderr, "%s\n", explanation)
	}

	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(stderr, "\n")
		for _, k := range keys {
			fmt.Fprintf(stderr, "  %s: %s\n", k, context[k])
		}
	}

	writeSuggestions(suggestions)
	return fmt.Errorf("%s", title)
}

// Failure prints title, the cause and suggestions like Error, but the
// returned error wraps cause so errors.Is and errors.As still see it.
func Failure(title string, cause error, suggestions []string) error {
	red.Fprintf(stderr, "%s\n\n", title)
	fmt.Fprintf(stderr, "%v\n", cause)
	writeSuggestions(suggestions)
	return fmt.Errorf("%s: %w", title, cause)
}

func writeSuggestions(suggestions []string) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintf(stderr, "\n")
	if len(suggestions) == 1 {
		fmt.Fprintf(stderr, "%s\n", suggestions[0])
		return
	}
	fmt.Fprintf(stderr, "Either:\n")
	for i, s := range suggestions {
		fmt.Fprintf(stderr, "  %d. %s\n", i+1, s)
	}
}

// Counts prints a "label: n" line per entry, skipping zero counts, in the
// given order.
func Counts(labels []string, counts map[string]int) {
	for _, l := range labels {
		if n := counts[l]; n > 0 {
			fmt.Fprintf(stdout, "  %-32s %d\n", l+":", n)
		}
	}
}

// Println prints a plain message (for output that doesn't need coloring)
func Println(a ...any) {
	fmt.Fprintln(stdout, a...)
}

// Printf prints a plain formatted message (for output that doesn't need coloring)
func Printf(format string, a ...any) {
	fmt.Fprintf(stdout, format, a...)
}
