// Package resolver turns the short run IDs shown by "wikisync runs" back
// into full run IDs.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dyluth/wikisync/pkg/journal"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
const MinShortIDLength = 6

// RunIndex lists the IDs of every journaled run.
type RunIndex interface {
	RunIDs(ctx context.Context) ([]string, error)
}

// ResolveRunID resolves a run ID or a unique prefix of one to the full ID.
func ResolveRunID(ctx context.Context, index RunIndex, shortID string) (string, error) {
	shortID = strings.ToLower(strings.TrimSpace(shortID))

	full := false
	if _, err := uuid.Parse(shortID); err == nil {
		full = true
	} else if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	ids, err := index.RunIDs(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to search for run: %w", err)
	}

	var matches []string
	for _, id := range ids {
		if id == shortID {
			return id, nil
		}
		if !full && strings.HasPrefix(id, shortID) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no runs matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no runs found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple runs matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d runs", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous short IDs.
// Lists all matching IDs (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous short ID '%s' matches %d runs:\n", err.ShortID, len(err.Matches))

	for _, id := range err.Matches[:min(len(err.Matches), 10)] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > 10 {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-10)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the run.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}

var _ RunIndex = (*journal.Client)(nil)
