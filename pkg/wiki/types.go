package wiki

import "context"

// Snapshot is the result of one attempt to read a page.
// A Snapshot is never mutated after it has been returned.
type Snapshot struct {
	Title      string `json:"title"`
	Exists     bool   `json:"exists"`
	Text       string `json:"text"`
	FetchError string `json:"fetch_error,omitempty"` // Non-empty when the read itself failed
}

// OK reports whether the page was read successfully and exists.
func (s Snapshot) OK() bool {
	return s.FetchError == "" && s.Exists
}

// Missing reports whether the read succeeded but the page does not exist.
func (s Snapshot) Missing() bool {
	return s.FetchError == "" && !s.Exists
}

// Failure describes why the snapshot is not usable. Empty when OK() is true.
func (s Snapshot) Failure() string {
	if s.FetchError != "" {
		return s.FetchError
	}
	if !s.Exists {
		return "page does not exist"
	}
	return ""
}

// Edit is one intended write. Content is always the complete text of the
// page, or of the section when Section is set.
type Edit struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Section *int   `json:"section,omitempty"`
}

// SectionEdit builds an Edit targeting a single numbered section of a page.
func SectionEdit(name, content string, section int) Edit {
	return Edit{Name: name, Content: content, Section: &section}
}

// Revision is one entry of a page's history.
type Revision struct {
	RevID   int64  `json:"revid"`
	Comment string `json:"comment"`
}

// Reader fetches pages.
// FetchPage returns an error only for failures that should abort a whole run
// (authentication, cancelled context); per-page failures are reported in the
// Snapshot.
type Reader interface {
	FetchPage(ctx context.Context, title string) (Snapshot, error)
}

// Writer submits bulk edits. All edits in one call share the summary comment.
type Writer interface {
	SubmitEdits(ctx context.Context, edits []Edit, comment string) error
	SubmitSectionEdits(ctx context.Context, edits []Edit, comment string) error
}

// Transport is the full contract the reconciliation tooling consumes.
type Transport interface {
	Reader
	Writer
	FetchRevisions(ctx context.Context, title string, count int) ([]Revision, error)
}

// PageCreator creates pages without overwriting existing ones.
type PageCreator interface {
	CreatePages(ctx context.Context, edits []Edit, comment string) error
}

// CategoryLister lists the page titles that belong to a category.
type CategoryLister interface {
	CategoryMembers(ctx context.Context, category string) ([]string, error)
}

// Undoer reverts a range of revisions on one page.
type Undoer interface {
	Undo(ctx context.Context, title string, undo, undoAfter int64, comment string) error
}

// SectionFinder looks up section numbers by heading text.
type SectionFinder interface {
	SectionIDs(ctx context.Context, title, heading string) ([]int, error)
}

// Uploader stores a file on the wiki.
type Uploader interface {
	UploadFile(ctx context.Context, filename, comment, text string, data []byte) error
}
