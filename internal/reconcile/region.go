package reconcile

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher locates one auto-generated region in page text.
type Matcher interface {
	// Find returns the byte range of the first region in text.
	Find(text string) (start, end int, ok bool)
}

// Replace substitutes the first region m finds in text with repl.
// repl is inserted literally. Text without a region is returned unchanged.
func Replace(m Matcher, text, repl string) string {
	start, end, ok := m.Find(text)
	if !ok {
		return text
	}
	return text[:start] + repl + text[end:]
}

// TemplateRegion matches a {{Name ...}} transclusion including any nested
// templates, by counting braces.
type TemplateRegion struct {
	Name string
}

func (r TemplateRegion) Find(text string) (int, int, bool) {
	for from := 0; from < len(text); {
		rel := strings.Index(text[from:], "{{")
		if rel < 0 {
			return 0, 0, false
		}
		open := from + rel
		if r.namedAt(text, open+2) {
			if end, ok := closeBraces(text, open); ok {
				return open, end, true
			}
			return 0, 0, false
		}
		from = open + 2
	}
	return 0, 0, false
}

// namedAt reports whether the template name starts at pos, allowing
// leading spaces and requiring a boundary after it.
func (r TemplateRegion) namedAt(text string, pos int) bool {
	for pos < len(text) && text[pos] == ' ' {
		pos++
	}
	if !strings.HasPrefix(text[pos:], r.Name) {
		return false
	}
	after := pos + len(r.Name)
	if after == len(text) {
		return true
	}
	switch text[after] {
	case '|', '}', '\n', ' ', '\t':
		return true
	}
	return false
}

// closeBraces returns the offset just past the }} that balances the {{ at open.
func closeBraces(text string, open int) (int, bool) {
	depth := 0
	for p := open; p+1 < len(text); {
		switch {
		case text[p] == '{' && text[p+1] == '{':
			depth++
			p += 2
		case text[p] == '}' && text[p+1] == '}':
			depth--
			p += 2
			if depth == 0 {
				return p, true
			}
		default:
			p++
		}
	}
	return 0, false
}

func (r TemplateRegion) String() string {
	return "{{" + r.Name + "}}"
}

// PatternRegion matches the first match of a regular expression.
type PatternRegion struct {
	Pattern *regexp.Regexp
}

func (r PatternRegion) Find(text string) (int, int, bool) {
	loc := r.Pattern.FindStringIndex(text)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

func (r PatternRegion) String() string {
	return r.Pattern.String()
}

// WikiTable matches the first {| ... |} table whose closing |} starts a line.
var WikiTable = PatternRegion{Pattern: regexp.MustCompile(`(?s)\{\|.*?\n\|\}`)}

// VersionMarker rewrites stale generator version markers.
type VersionMarker struct {
	Stale   *regexp.Regexp
	Current string
}

// NewVersionMarker compiles the stale-marker pattern.
func NewVersionMarker(stalePattern, current string) (VersionMarker, error) {
	if current == "" {
		return VersionMarker{}, fmt.Errorf("current version marker cannot be empty")
	}
	re, err := regexp.Compile(stalePattern)
	if err != nil {
		return VersionMarker{}, fmt.Errorf("invalid stale version pattern: %w", err)
	}
	return VersionMarker{Stale: re, Current: current}, nil
}

// Bump replaces the first stale marker in text with the current marker.
func (v VersionMarker) Bump(text string) string {
	if v.Stale == nil {
		return text
	}
	loc := v.Stale.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + v.Current + text[loc[1]:]
}
