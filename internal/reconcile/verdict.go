package reconcile

import "fmt"

// Verdict classifies what a run decided for one page.
type Verdict int

const (
	// NoChange: the page is current, no edit.
	NoChange Verdict = iota
	// VersionBumpOnly: template data is current, only the version marker is stale.
	VersionBumpOnly
	// TemplateChangedMatchesDefault: template data changed and the updated
	// page is exactly the generated page.
	TemplateChangedMatchesDefault
	// TemplateChangedManualDataPresent: template data changed and the page
	// carries content outside the template regions. The edit keeps that
	// content; the page is flagged for human review.
	TemplateChangedManualDataPresent
	// FetchFailed: the page (or a sub-page) could not be read. No edit.
	FetchFailed
	// Created: the page did not exist and is created from the generator.
	Created
)

var verdictNames = map[Verdict]string{
	NoChange:                         "NoChange",
	VersionBumpOnly:                  "VersionBumpOnly",
	TemplateChangedMatchesDefault:    "TemplateChangedMatchesDefault",
	TemplateChangedManualDataPresent: "TemplateChangedManualDataPresent",
	FetchFailed:                      "FetchFailed",
	Created:                          "Created",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// NeedsReview reports whether a human should look at the edit before it lands.
func (v Verdict) NeedsReview() bool {
	return v == TemplateChangedManualDataPresent
}

// MarshalText encodes the verdict by name.
func (v Verdict) MarshalText() ([]byte, error) {
	name, ok := verdictNames[v]
	if !ok {
		return nil, fmt.Errorf("unknown verdict %d", int(v))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a verdict name.
func (v *Verdict) UnmarshalText(text []byte) error {
	parsed, err := ParseVerdict(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVerdict returns the verdict called name.
func ParseVerdict(name string) (Verdict, error) {
	for v, n := range verdictNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown verdict %q", name)
}
