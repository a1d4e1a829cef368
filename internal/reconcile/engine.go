package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyluth/wikisync/pkg/wiki"
)

// Engine decides, page by page, what has to change. It reads through the
// transport but never writes.
type Engine struct {
	reader  wiki.Reader
	version VersionMarker
	logger  *zap.Logger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(reader wiki.Reader, version VersionMarker, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{reader: reader, version: version, logger: logger}
}

// Version returns the marker the engine bumps pages to.
func (e *Engine) Version() VersionMarker {
	return e.version
}

// Reconcile decides what to do with the page of entity i.
// The returned error is non-nil only when the run must stop.
func (e *Engine) Reconcile(ctx context.Context, k *Kind, i int) (Outcome, error) {
	out, old, ok, err := e.fetch(ctx, k.Key, k.Title(i), i)
	if err != nil || !ok {
		return out, err
	}

	replaced := Replace(k.Region, old, k.Fill(i))
	out = e.decide(out, old, replaced, func() string { return k.Generate(i) })
	e.logOutcome(k.Key, out)
	return out, nil
}

// decide classifies a page given its text before and after region substitution.
func (e *Engine) decide(out Outcome, old, replaced string, generate func() string) Outcome {
	if replaced == old {
		versioned := e.version.Bump(old)
		if versioned == old {
			out.Verdict = NoChange
			return out
		}
		out.Verdict = VersionBumpOnly
		out.Edits = []wiki.Edit{{Name: out.Title, Content: versioned}}
		return out
	}

	versionedReplaced := e.version.Bump(replaced)
	if versionedReplaced == generate() {
		out.Verdict = TemplateChangedMatchesDefault
	} else {
		out.Verdict = TemplateChangedManualDataPresent
		out.Before = old
	}
	out.Edits = []wiki.Edit{{Name: out.Title, Content: versionedReplaced}}
	return out
}

// FixVersion bumps the version marker of entity i's page, but only when the
// bumped page is exactly the generated page.
func (e *Engine) FixVersion(ctx context.Context, k *Kind, i int) (Outcome, error) {
	out, old, ok, err := e.fetch(ctx, k.Key, k.Title(i), i)
	if err != nil || !ok {
		return out, err
	}

	bumped := e.version.Bump(old)
	switch {
	case bumped != k.Generate(i):
		out.Verdict = NoChange
		out.Reason = "cannot update version, page is still out of date"
	case bumped == old:
		out.Verdict = NoChange
		out.Reason = "already up to date"
	default:
		out.Verdict = VersionBumpOnly
		out.Edits = []wiki.Edit{{Name: out.Title, Content: bumped}}
	}
	e.logOutcome(k.Key, out)
	return out, nil
}

// Create proposes the generated page for entity i when the page does not exist.
func (e *Engine) Create(ctx context.Context, k *Kind, i int) (Outcome, error) {
	title := k.Title(i)
	out := Outcome{Index: i, Title: title}
	if title == "" {
		return e.failed(k.Key, out, "no page title"), nil
	}

	snap, err := e.reader.FetchPage(ctx, title)
	if err != nil {
		return out, fmt.Errorf("fetch %q: %w", title, err)
	}
	switch {
	case snap.FetchError != "":
		return e.failed(k.Key, out, snap.FetchError), nil
	case snap.Exists:
		out.Verdict = NoChange
		out.Reason = "page already exists"
	default:
		out.Verdict = Created
		out.Edits = []wiki.Edit{{Name: title, Content: k.Generate(i)}}
	}
	e.logOutcome(k.Key, out)
	return out, nil
}

// fetch reads a page that must exist. ok is false when the outcome is
// already final (FetchFailed).
func (e *Engine) fetch(ctx context.Context, kind, title string, i int) (Outcome, string, bool, error) {
	out := Outcome{Index: i, Title: title}
	if title == "" {
		return e.failed(kind, out, "no page title"), "", false, nil
	}

	snap, err := e.reader.FetchPage(ctx, title)
	if err != nil {
		return out, "", false, fmt.Errorf("fetch %q: %w", title, err)
	}
	if !snap.OK() {
		return e.failed(kind, out, snap.Failure()), "", false, nil
	}
	return out, snap.Text, true, nil
}

func (e *Engine) failed(kind string, out Outcome, reason string) Outcome {
	out.Verdict = FetchFailed
	out.Reason = reason
	e.logOutcome(kind, out)
	return out
}

func (e *Engine) logOutcome(kind string, out Outcome) {
	fields := []zap.Field{
		zap.String("kind", kind),
		zap.Int("index", out.Index),
		zap.String("page", out.Title),
		zap.Stringer("verdict", out.Verdict),
	}
	if out.Reason != "" {
		fields = append(fields, zap.String("reason", out.Reason))
	}

	switch out.Verdict {
	case NoChange:
		e.logger.Debug("no changes", fields...)
	case VersionBumpOnly:
		e.logger.Info("no template changes, updating version", fields...)
	case TemplateChangedMatchesDefault:
		e.logger.Info("template changed, page matches default", fields...)
	case TemplateChangedManualDataPresent:
		e.logger.Warn("template changed, manual review required", fields...)
	case Created:
		e.logger.Info("page will be created", fields...)
	case FetchFailed:
		e.logger.Warn("cannot update page", fields...)
	}
}
