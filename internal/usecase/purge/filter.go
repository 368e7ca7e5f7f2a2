package purge

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/bnema/sweep/internal/domain"
)

// CompilePattern compiles a classification pattern. Patterns match at the
// beginning of a tag, so "myrepo:" matches "myrepo:v1" but not
// "other/myrepo:v1".
func CompilePattern(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`\A(?:` + expr + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return re, nil
}

// BuildPlan classifies every image in the inventory against the rules and
// the keep-set, and returns the resulting removal plan.
//
// Every tag of every image is evaluated independently, first matching rule
// wins: keep-pattern, always-remove-pattern, only-pattern scope, keep-set
// membership. An image whose tag was individually kept still lands in the
// plan when a sibling tag marks it for removal. Untagged images bypass the
// tag rules entirely; the dangling policy alone decides them, with their id
// standing in for a tag.
func (s *Service) BuildPlan(images []domain.Image, keep domain.KeepSet, rules domain.Rules) domain.Plan {
	refs := make(map[string]domain.Image)
	doomed := make(map[string]domain.Image)

	mark := func(ref string, img domain.Image) {
		refs[ref] = img
		doomed[img.ID] = img
	}

	for _, img := range images {
		tags := img.Tags()

		if len(tags) == 0 {
			s.log.Warn("dangling image", "id", img.ShortID(), "remove", rules.RemoveDangling)
			if rules.RemoveDangling {
				mark(img.ID, img)
			}
			continue
		}

		for _, tag := range tags {
			switch {
			case rules.Keep != nil && rules.Keep.MatchString(tag):
				// explicitly protected, skip remaining rules
			case rules.AlwaysRemove != nil && rules.AlwaysRemove.MatchString(tag):
				mark(tag, img)
			case rules.Only != nil && !rules.Only.MatchString(tag):
				// out of scope, left untouched
			case !keep.Has(tag):
				mark(tag, img)
			}
		}
	}

	plan := domain.Plan{
		Entries: make([]domain.PlanEntry, 0, len(refs)),
		Images:  make([]domain.Image, 0, len(doomed)),
	}

	for ref, img := range refs {
		plan.Entries = append(plan.Entries, domain.PlanEntry{
			Ref:     ref,
			ImageID: img.ID,
			Size:    img.Size,
		})
	}
	sort.Slice(plan.Entries, func(i, j int) bool {
		return plan.Entries[i].Ref < plan.Entries[j].Ref
	})

	for _, img := range doomed {
		plan.Images = append(plan.Images, img)
	}
	sort.Slice(plan.Images, func(i, j int) bool {
		return plan.Images[i].ID < plan.Images[j].ID
	})

	plan.SizeEstimate = estimateSize(plan.Images)

	for _, entry := range plan.Entries {
		s.log.Info("will remove image", "ref", entry.Ref)
	}
	s.log.Info("estimated reclaim (overestimates shared layers)",
		"bytes", plan.SizeEstimate,
		"images", len(plan.Images),
	)

	return plan
}

// estimateSize sums the declared sizes of the doomed images. Shared layers
// are counted once per image, so this overestimates the space actually
// reclaimed. Missing size metadata counts as zero.
func estimateSize(images []domain.Image) int64 {
	var total int64
	for _, img := range images {
		if img.Size < 0 {
			continue
		}
		total += img.Size
	}
	return total
}
