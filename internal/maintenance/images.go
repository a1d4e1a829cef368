package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dyluth/wikisync/internal/gamedata"
	"github.com/dyluth/wikisync/internal/markup"
	"github.com/dyluth/wikisync/pkg/wiki"
)

// KindUpgrades is the image kind covering every shop upgrade.
const KindUpgrades = "upgrades"

// DefaultConcurrency is the number of uploads in flight at once.
const DefaultConcurrency = 4

// Image is one file to copy from the game onto the wiki.
type Image struct {
	Filename string // Wiki file name, e.g. "Cow (monster).svg"
	Source   string // Download URL
}

// ImageSet is every image of one kind plus the category the files go in.
type ImageSet struct {
	Kind     string
	Category string
	Images   []Image
}

// Fetcher downloads image data.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// ImageKinds lists the kinds Images accepts.
func ImageKinds() []string {
	return []string{
		gamedata.KindItems, gamedata.KindMonsters, gamedata.KindDungeons,
		gamedata.KindPrayers, gamedata.KindSpells, gamedata.KindCombatAreas,
		gamedata.KindThievingTargets, KindUpgrades,
	}
}

// Images lists the images of kind, with sources resolved against baseURL.
func Images(data *gamedata.Dataset, kind, baseURL string) (*ImageSet, error) {
	src := func(media string) string {
		return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(media, "/")
	}
	set := &ImageSet{Kind: kind}
	add := func(name, suffix, media string) {
		set.Images = append(set.Images, Image{Filename: markup.FileName(name, suffix, media), Source: src(media)})
	}

	switch kind {
	case gamedata.KindItems:
		set.Category = "[[Category:Items]]"
		for _, it := range data.Items {
			add(it.Name, "item", it.Media)
		}
	case gamedata.KindMonsters:
		// Only monsters that can be fought somewhere get an image.
		set.Category = "[[Category:Monsters]]"
		seen := make(map[int]bool)
		var areas [][]int
		for _, a := range data.CombatAreas {
			areas = append(areas, a.Monsters)
		}
		for _, a := range data.SlayerAreas {
			areas = append(areas, a.Monsters)
		}
		for _, d := range data.Dungeons {
			areas = append(areas, d.Monsters)
		}
		for _, ids := range areas {
			for _, id := range ids {
				if seen[id] {
					continue
				}
				seen[id] = true
				m := data.Monsters[id]
				add(m.Name, "monster", m.Media)
			}
		}
	case gamedata.KindDungeons:
		set.Category = "[[Category:Dungeons]]"
		for _, d := range data.Dungeons {
			add(d.Name, "dungeon", d.Media)
		}
	case gamedata.KindPrayers:
		set.Category = "[[Category:Prayers]]"
		for _, p := range data.Prayers {
			add(p.Name, "prayer", p.Media)
		}
	case gamedata.KindSpells:
		set.Category = "[[Category:Spells]]"
		for _, s := range data.Spells {
			add(s.Name, "spell", s.Media)
		}
	case gamedata.KindCombatAreas:
		set.Category = "[[Category:Combat Areas]]"
		for _, a := range data.CombatAreas {
			add(a.Name, "combatArea", a.Media)
		}
		for _, a := range data.SlayerAreas {
			add(a.Name, "combatArea", a.Media)
		}
	case gamedata.KindThievingTargets:
		set.Category = "[[Category:Thieving Targets]]"
		for _, t := range data.ThievingTargets {
			add(t.Name, "thieving", t.Media)
		}
	case KindUpgrades:
		set.Category = "[[Category:Upgrades]]"
		for i, t := range data.Upgrades.Tiers {
			if i == 0 {
				continue
			}
			tier := gamedata.UpperFirst(t.Name)
			add(tier+" Axe", "upgrade", "assets/media/shop/axe_"+t.Name+".svg")
			add(tier+" Fishing Rod", "upgrade", "assets/media/shop/fishing_"+t.Name+".svg")
			add(tier+" Pickaxe", "upgrade", "assets/media/shop/pickaxe_"+t.Name+".svg")
		}
		for _, f := range data.Upgrades.CookingFires {
			add(gamedata.UpperFirst(f.Tier)+" Cooking Fire", "upgrade", f.Media)
		}
		for _, a := range data.Upgrades.AutoEat {
			add(a.Title, "upgrade", "assets/media/shop/autoeat.svg")
		}
		for _, g := range data.Upgrades.God {
			add(g.Name, "upgrade", g.Media)
		}
	default:
		return nil, fmt.Errorf("no images for kind: %s (valid: %s)", kind, strings.Join(ImageKinds(), ", "))
	}
	return set, nil
}

// UploadResult counts the outcome of an upload batch.
type UploadResult struct {
	Uploaded int
	Failed   []string
}

// UploadImages downloads and uploads images with at most concurrency
// transfers in flight. A failing image is logged and recorded; an auth
// failure or cancellation stops the whole batch.
func (r *Runner) UploadImages(ctx context.Context, up wiki.Uploader, fetch Fetcher, set *ImageSet, concurrency int) (*UploadResult, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	res := &UploadResult{}
	if r.dryRun {
		for _, img := range set.Images {
			r.logger.Info("would upload image", zap.String("file", img.Filename), zap.String("source", img.Source))
		}
		return res, nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, img := range set.Images {
		img := img
		g.Go(func() error {
			err := r.upload(gctx, up, fetch, img, set.Category)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				res.Uploaded++
				return nil
			}
			if fatal(err) {
				return err
			}
			r.logger.Warn("cannot upload image", zap.String("file", img.Filename), zap.Error(err))
			res.Failed = append(res.Failed, img.Filename)
			errs = append(errs, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("image upload aborted: %w", err)
	}

	r.logger.Info(fmt.Sprintf("%d images uploaded", res.Uploaded), zap.Int("failed", len(res.Failed)))
	return res, errors.Join(errs...)
}

func (r *Runner) upload(ctx context.Context, up wiki.Uploader, fetch Fetcher, img Image, category string) error {
	data, err := fetch.Download(ctx, img.Source)
	if err != nil {
		return err
	}
	return up.UploadFile(ctx, img.Filename, UploadComment, category, data)
}
