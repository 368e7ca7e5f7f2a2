package domain

import "regexp"

// Rules is the classification rule set applied to every tag. Patterns are
// matched against the beginning of the tag, first matching rule wins:
// Keep > AlwaysRemove > Only > keep-set membership. A nil pattern disables
// that rule.
type Rules struct {
	Keep           *regexp.Regexp
	AlwaysRemove   *regexp.Regexp
	Only           *regexp.Regexp
	RemoveDangling bool
}

// PlanEntry is one reference selected for deletion: a repo:tag, or the image
// id for a dangling image.
type PlanEntry struct {
	Ref     string
	ImageID string
	Size    int64
}

// Plan is the outcome of classifying the inventory against the keep-set.
// Images holds each doomed image once, even when several of its tags matched
// independently.
type Plan struct {
	Entries []PlanEntry
	Images  []Image

	// SizeEstimate is the summed size of Images in bytes. It overestimates
	// when images share layers; no layer-graph analysis is done.
	SizeEstimate int64
}

// Empty reports whether nothing was selected for removal.
func (p Plan) Empty() bool {
	return len(p.Entries) == 0
}

// Refs returns the references to delete, in plan order.
func (p Plan) Refs() []string {
	refs := make([]string, 0, len(p.Entries))
	for _, entry := range p.Entries {
		refs = append(refs, entry.Ref)
	}
	return refs
}

// PruneReport summarizes a store-level prune of orphaned layers.
type PruneReport struct {
	Deleted        int
	SpaceReclaimed uint64
}

// PurgeReport summarizes one purge execution. Individual deletion failures
// are recorded, not fatal.
type PurgeReport struct {
	Removed []string
	Failed  []string
	Prune   PruneReport
}
