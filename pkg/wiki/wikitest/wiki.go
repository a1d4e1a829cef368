// Package wikitest provides an in-memory wiki for tests.
package wikitest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dyluth/wikisync/pkg/wiki"
)

// Submit records one bulk write call.
type Submit struct {
	Comment    string
	Edits      []wiki.Edit
	Sections   bool
	CreateOnly bool
}

// Undo records one Undo call.
type Undo struct {
	Title     string
	Undo      int64
	UndoAfter int64
	Comment   string
}

// Upload records one UploadFile call.
type Upload struct {
	Filename string
	Comment  string
	Text     string
	Data     []byte
}

// Wiki is an in-memory implementation of every transport interface in
// package wiki. Whole-page submits are applied to the stored pages, so a
// second reconciliation run sees the first run's writes.
type Wiki struct {
	mu sync.Mutex

	pages      map[string]string
	failures   map[string]string
	authErr    error
	revisions  map[string][]wiki.Revision
	categories map[string][]string
	sections   map[string]map[string][]int
	uploadErrs map[string]error

	// SubmitErr, when set, is returned by every write call and nothing is applied.
	SubmitErr error

	Submits []Submit
	Fetches []string
	Undos   []Undo
	Uploads []Upload
}

// New creates an empty wiki.
func New() *Wiki {
	return &Wiki{
		pages:      make(map[string]string),
		failures:   make(map[string]string),
		revisions:  make(map[string][]wiki.Revision),
		categories: make(map[string][]string),
		sections:   make(map[string]map[string][]int),
		uploadErrs: make(map[string]error),
	}
}

// SetPage stores text as the current content of title.
func (w *Wiki) SetPage(title, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages[title] = text
}

// Page returns the stored content of title.
func (w *Wiki) Page(title string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	text, ok := w.pages[title]
	return text, ok
}

// FailFetch makes every read of title report reason as a fetch failure.
func (w *Wiki) FailFetch(title, reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[title] = reason
}

// FailAuth makes every subsequent call return err (wrapping wiki.ErrAuth
// when err is nil).
func (w *Wiki) FailAuth(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err == nil {
		err = fmt.Errorf("%w: session expired", wiki.ErrAuth)
	}
	w.authErr = err
}

// SetRevisions stores the history of title, newest first.
func (w *Wiki) SetRevisions(title string, revs ...wiki.Revision) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.revisions[title] = revs
}

// SetCategory stores the members of category (without the "Category:" prefix).
func (w *Wiki) SetCategory(category string, titles ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.categories[strings.TrimPrefix(category, "Category:")] = titles
}

// SetSections stores the section numbers of heading on title.
func (w *Wiki) SetSections(title, heading string, ids ...int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sections[title] == nil {
		w.sections[title] = make(map[string][]int)
	}
	w.sections[title][heading] = ids
}

// FailUpload makes uploads of filename return err.
func (w *Wiki) FailUpload(filename string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.uploadErrs[filename] = err
}

// Titles returns the titles of all stored pages, sorted.
func (w *Wiki) Titles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	titles := make([]string, 0, len(w.pages))
	for t := range w.pages {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// Edits returns every edit submitted so far, in submit order.
func (w *Wiki) Edits() []wiki.Edit {
	w.mu.Lock()
	defer w.mu.Unlock()
	var edits []wiki.Edit
	for _, s := range w.Submits {
		edits = append(edits, s.Edits...)
	}
	return edits
}

func (w *Wiki) FetchPage(ctx context.Context, title string) (wiki.Snapshot, error) {
	snap := wiki.Snapshot{Title: title}
	if err := ctx.Err(); err != nil {
		return snap, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.Fetches = append(w.Fetches, title)

	if w.authErr != nil {
		return snap, w.authErr
	}
	if reason, ok := w.failures[title]; ok {
		snap.FetchError = reason
		return snap, nil
	}
	if text, ok := w.pages[title]; ok {
		snap.Exists = true
		snap.Text = text
	}
	return snap, nil
}

func (w *Wiki) SubmitEdits(ctx context.Context, edits []wiki.Edit, comment string) error {
	return w.submit(ctx, Submit{Comment: comment, Edits: edits})
}

func (w *Wiki) SubmitSectionEdits(ctx context.Context, edits []wiki.Edit, comment string) error {
	for _, e := range edits {
		if e.Section == nil {
			return fmt.Errorf("section edit for %q has no section", e.Name)
		}
	}
	return w.submit(ctx, Submit{Comment: comment, Edits: edits, Sections: true})
}

func (w *Wiki) CreatePages(ctx context.Context, edits []wiki.Edit, comment string) error {
	return w.submit(ctx, Submit{Comment: comment, Edits: edits, CreateOnly: true})
}

func (w *Wiki) submit(ctx context.Context, s Submit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.authErr != nil {
		return w.authErr
	}
	if w.SubmitErr != nil {
		return w.SubmitErr
	}

	s.Edits = append([]wiki.Edit(nil), s.Edits...)
	w.Submits = append(w.Submits, s)
	if s.Sections {
		return nil
	}
	for _, e := range s.Edits {
		if _, exists := w.pages[e.Name]; exists && s.CreateOnly {
			continue
		}
		w.pages[e.Name] = e.Content
	}
	return nil
}

func (w *Wiki) FetchRevisions(ctx context.Context, title string, count int) ([]wiki.Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.authErr != nil {
		return nil, w.authErr
	}
	revs, ok := w.revisions[title]
	if !ok {
		return nil, fmt.Errorf("page %q does not exist", title)
	}
	if len(revs) > count {
		revs = revs[:count]
	}
	return append([]wiki.Revision(nil), revs...), nil
}

func (w *Wiki) CategoryMembers(ctx context.Context, category string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.authErr != nil {
		return nil, w.authErr
	}
	return append([]string(nil), w.categories[strings.TrimPrefix(category, "Category:")]...), nil
}

func (w *Wiki) SectionIDs(ctx context.Context, title, heading string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.authErr != nil {
		return nil, w.authErr
	}
	return append([]int(nil), w.sections[title][heading]...), nil
}

func (w *Wiki) Undo(ctx context.Context, title string, undo, undoAfter int64, comment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.authErr != nil {
		return w.authErr
	}
	if w.SubmitErr != nil {
		return w.SubmitErr
	}
	w.Undos = append(w.Undos, Undo{Title: title, Undo: undo, UndoAfter: undoAfter, Comment: comment})
	return nil
}

func (w *Wiki) UploadFile(ctx context.Context, filename, comment, text string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.authErr != nil {
		return w.authErr
	}
	if err, ok := w.uploadErrs[filename]; ok {
		return err
	}
	w.Uploads = append(w.Uploads, Upload{Filename: filename, Comment: comment, Text: text, Data: data})
	return nil
}

var (
	_ wiki.Transport      = (*Wiki)(nil)
	_ wiki.PageCreator    = (*Wiki)(nil)
	_ wiki.CategoryLister = (*Wiki)(nil)
	_ wiki.SectionFinder  = (*Wiki)(nil)
	_ wiki.Undoer         = (*Wiki)(nil)
	_ wiki.Uploader       = (*Wiki)(nil)
)
