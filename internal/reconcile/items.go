package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dyluth/wikisync/pkg/wiki"
)

// SubPage is a separate wiki page whose content belongs to an item page,
// such as a loot table or source list template.
type SubPage struct {
	Name      string             // Short label used in logs and failure reasons
	Title     func(i int) string // Page title for entity i
	Applies   func(i int) bool   // Optional; the sub-page is skipped when false
	Region    Matcher            // Region to replace; nil compares the whole page
	Render    func(i int) string // Region markup, or the whole page when Region is nil
	Normalize func(text string) string
}

func (sp SubPage) applies(i int) bool {
	return sp.Applies == nil || sp.Applies(i)
}

// ItemKind is a Kind whose pages carry several templates: the main item
// template, an optional stat template on the same page and any number of
// sub-pages.
type ItemKind struct {
	Kind
	// Stats picks the stat template region and its markup for entity i.
	Stats    func(i int) (region Matcher, fill string, ok bool)
	SubPages []SubPage
}

const subPageDriftReason = "sub-page drift detected; rerun with --sub-pages"

// ReconcileItem decides what to do with an item page and its sub-pages.
// With syncSubPages, drifted sub-pages get their own edits after the main page edit.
func (e *Engine) ReconcileItem(ctx context.Context, k *ItemKind, i int, syncSubPages bool) (Outcome, error) {
	out, old, ok, err := e.fetch(ctx, k.Key, k.Title(i), i)
	if err != nil || !ok {
		return out, err
	}

	fill := k.Fill(i)
	replaced := Replace(k.Region, old, fill)
	if k.Stats != nil {
		if region, statFill, ok := k.Stats(i); ok {
			replaced = Replace(region, replaced, statFill)
		}
	}
	dataChanged := replaced != old

	subEdits, failures, err := e.checkSubPages(ctx, k, i)
	if err != nil {
		return out, err
	}
	if len(failures) > 0 {
		return e.failed(k.Key, out, strings.Join(failures, "; ")), nil
	}
	if len(subEdits) > 0 {
		dataChanged = true
	}

	if !dataChanged {
		out = e.decide(out, old, old, nil)
		e.logOutcome(k.Key, out)
		return out, nil
	}

	generated := k.Generate(i)
	versioned := e.version.Bump(replaced)
	if versioned != generated {
		// Generated pages put a line break after the item template that
		// older pages lack.
		withBreak := Replace(k.Region, versioned, fill+"\n")
		if withBreak == generated {
			e.logger.Debug("adding line break after item template", zap.String("page", out.Title))
			versioned = withBreak
		}
	}

	if versioned == generated {
		out.Verdict = TemplateChangedMatchesDefault
	} else {
		out.Verdict = TemplateChangedManualDataPresent
		out.Before = old
	}

	if versioned != old {
		out.Edits = append(out.Edits, wiki.Edit{Name: out.Title, Content: versioned})
	}
	if syncSubPages {
		out.Edits = append(out.Edits, subEdits...)
	}
	if len(out.Edits) == 0 {
		out.Verdict = NoChange
		out.Before = ""
		out.Reason = subPageDriftReason
	}

	e.logOutcome(k.Key, out)
	return out, nil
}

// checkSubPages fetches and compares every applicable sub-page. Every
// sub-page is checked even after one fails, so all drift gets logged.
func (e *Engine) checkSubPages(ctx context.Context, k *ItemKind, i int) ([]wiki.Edit, []string, error) {
	var (
		edits    []wiki.Edit
		failures []string
	)
	for _, sp := range k.SubPages {
		if !sp.applies(i) {
			continue
		}
		title := sp.Title(i)

		snap, err := e.reader.FetchPage(ctx, title)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch %q: %w", title, err)
		}
		if !snap.OK() {
			failures = append(failures, fmt.Sprintf("%s: %s", sp.Name, snap.Failure()))
			e.logger.Warn("cannot check sub-page",
				zap.String("page", k.Title(i)),
				zap.String("sub_page", title),
				zap.String("reason", snap.Failure()))
			continue
		}

		current := snap.Text
		if sp.Normalize != nil {
			current = sp.Normalize(current)
		}
		want := sp.Render(i)
		if sp.Region != nil {
			want = Replace(sp.Region, current, want)
		}
		if want != current {
			e.logger.Info("sub-page changed",
				zap.String("page", k.Title(i)),
				zap.String("sub_page", title),
				zap.String("component", sp.Name))
			edits = append(edits, wiki.Edit{Name: title, Content: want})
		}
	}
	return edits, failures, nil
}
