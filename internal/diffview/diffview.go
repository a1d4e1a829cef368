// Package diffview renders page edits as unified diffs for review.
package diffview

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

var (
	added   = color.New(color.FgGreen)
	removed = color.New(color.FgRed)
	hunk    = color.New(color.FgCyan)
)

// Unified returns the unified diff between before and after for page title.
// It returns "" when the texts are equal.
func Unified(title, before, after string, context int) (string, error) {
	if before == after {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(ensureNewline(before)),
		B:        difflib.SplitLines(ensureNewline(after)),
		FromFile: title + " (live)",
		ToFile:   title + " (proposed)",
		Context:  context,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to diff %s: %w", title, err)
	}
	return text, nil
}

// Write prints the diff between before and after, coloured by line type.
// Colour follows the fatih/color NO_COLOR handling.
func Write(w io.Writer, title, before, after string) error {
	text, err := Unified(title, before, after, DefaultContext)
	if err != nil {
		return err
	}
	if text == "" {
		_, err := fmt.Fprintf(w, "%s: no changes\n", title)
		return err
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			_, err = fmt.Fprint(w, line)
		case strings.HasPrefix(line, "@@"):
			_, err = hunk.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			_, err = added.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			_, err = removed.Fprint(w, line)
		default:
			_, err = fmt.Fprint(w, line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Changed counts the added and removed lines between before and after.
func Changed(before, after string) (plus, minus int) {
	m := difflib.NewMatcher(difflib.SplitLines(ensureNewline(before)), difflib.SplitLines(ensureNewline(after)))
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			minus += op.I2 - op.I1
			plus += op.J2 - op.J1
		case 'd':
			minus += op.I2 - op.I1
		case 'i':
			plus += op.J2 - op.J1
		}
	}
	return plus, minus
}

// ensureNewline keeps the last line comparable when one side lacks a
// trailing newline.
func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
