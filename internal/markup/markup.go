// Package markup renders game data into wiki markup: the template calls
// that fill auto-generated page regions and the canonical pages built
// around them.
//
// Every function here is pure. Given the same dataset and options the
// output is byte-for-byte identical, which is what lets the reconciliation
// engine compare rendered text against live pages.
package markup

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/dyluth/wikisync/internal/gamedata"
)

// Options carries the version markers stamped on generated pages.
type Options struct {
	Version         string         // Current version marker, e.g. {{V|0.18}}
	VersionCategory string         // Current version category, e.g. [[Category:v0.18]]
	StaleCategory   *regexp.Regexp // Matches outdated version categories
}

// Renderer renders one dataset.
type Renderer struct {
	data *gamedata.Dataset
	opts Options
}

// NewRenderer creates a renderer for data.
func NewRenderer(data *gamedata.Dataset, opts Options) *Renderer {
	return &Renderer{data: data, opts: opts}
}

// Data returns the dataset being rendered.
func (r *Renderer) Data() *gamedata.Dataset {
	return r.data
}

// templateCall builds a multi-line {{Name|key=value}} transclusion.
type templateCall struct {
	b strings.Builder
}

func newTemplate(name string) *templateCall {
	c := &templateCall{}
	c.b.WriteString("{{")
	c.b.WriteString(name)
	return c
}

func (c *templateCall) param(key string, value any) *templateCall {
	fmt.Fprintf(&c.b, "\n|%s=%v", key, value)
	return c
}

// optional adds the parameter only when value is not its zero value.
func (c *templateCall) optional(key string, value any) *templateCall {
	switch v := value.(type) {
	case string:
		if v == "" {
			return c
		}
	case int:
		if v == 0 {
			return c
		}
	}
	return c.param(key, value)
}

func (c *templateCall) String() string {
	return c.b.String() + "\n}}"
}

// page joins page sections and stamps the version marker at the end.
func (r *Renderer) page(sections ...string) string {
	var b strings.Builder
	for _, s := range sections {
		if s == "" {
			continue
		}
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString(r.opts.Version)
	return b.String()
}

func heading(title string) string {
	return "==" + title + "=="
}

// FileName is the wiki file name of an entity image:
// "<name> (<suffix>)<ext>", with the extension taken from the media path.
func FileName(name, suffix, media string) string {
	ext := path.Ext(media)
	if ext == "" {
		ext = ".svg"
	}
	return fmt.Sprintf("%s (%s)%s", name, suffix, ext)
}

// dropTable renders a loot table. Chances are relative to the total weight.
func (r *Renderer) dropTable(drops []gamedata.Drop) string {
	total := 0
	for _, d := range drops {
		total += d.Weight
	}

	var b strings.Builder
	b.WriteString("{| class=\"wikitable sortable\"\n")
	b.WriteString("!Item!!Quantity!!Chance\n")
	for _, d := range drops {
		b.WriteString("|-\n")
		fmt.Fprintf(&b, "|{{ItemIcon|%s}}||%s||%s\n", d.Item, quantity(d), chance(d.Weight, total))
	}
	b.WriteString("|}")
	return b.String()
}

func quantity(d gamedata.Drop) string {
	lo, hi := d.Min, d.Max
	if lo == 0 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	if lo == hi {
		return fmt.Sprintf("%d", lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

func chance(weight, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(weight)*100/float64(total))
}

// monsterList renders a bullet list of monster links.
func (r *Renderer) monsterList(ids []int) string {
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, "* [["+r.data.Monsters[id].Title()+"]]")
	}
	return strings.Join(lines, "\n")
}
