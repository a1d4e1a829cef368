package journal

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dyluth/wikisync/pkg/wiki"
)

// Serialization helpers for converting between runs and Redis hashes
//
// Scalar fields are stored as individual hash fields so that status changes
// can be written with a single HSET. Edits and outcomes are JSON-encoded.

// RunToHash converts a Run to a Redis hash.
func RunToHash(r *Run) (map[string]interface{}, error) {
	edits, err := json.Marshal(r.Edits)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal edits: %w", err)
	}
	outcomes, err := json.Marshal(r.Outcomes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outcomes: %w", err)
	}

	return map[string]interface{}{
		"id":            r.ID,
		"kind":          r.Kind,
		"mode":          r.Mode,
		"comment":       r.Comment,
		"status":        string(r.Status),
		"changed":       r.Changed,
		"edits":         string(edits),
		"outcomes":      string(outcomes),
		"error":         r.Error,
		"created_at_ms": r.CreatedAtMs,
		"updated_at_ms": r.UpdatedAtMs,
	}, nil
}

// HashToRun converts a Redis hash back to a Run.
func HashToRun(hash map[string]string) (*Run, error) {
	changed, err := strconv.Atoi(hash["changed"])
	if err != nil {
		return nil, fmt.Errorf("invalid changed field: %w", err)
	}

	var edits []wiki.Edit
	if raw := hash["edits"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &edits); err != nil {
			return nil, fmt.Errorf("failed to unmarshal edits: %w", err)
		}
	}
	var outcomes []Outcome
	if raw := hash["outcomes"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &outcomes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcomes: %w", err)
		}
	}

	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	updatedAtMs, _ := strconv.ParseInt(hash["updated_at_ms"], 10, 64)

	return &Run{
		ID:          hash["id"],
		Kind:        hash["kind"],
		Mode:        hash["mode"],
		Comment:     hash["comment"],
		Status:      RunStatus(hash["status"]),
		Changed:     changed,
		Edits:       edits,
		Outcomes:    outcomes,
		Error:       hash["error"],
		CreatedAtMs: createdAtMs,
		UpdatedAtMs: updatedAtMs,
	}, nil
}
