// Package domain holds the value types shared across the purge pipeline.
package domain

import (
	"sort"
	"strings"
)

// placeholderTag is what the image store reports for untagged images.
const placeholderTag = "<none>:<none>"

// Image is one locally stored container image.
type Image struct {
	ID       string
	RepoTags []string
	Size     int64
}

// Tags returns the image's repo:tag references with placeholder entries
// filtered out.
func (i Image) Tags() []string {
	tags := make([]string, 0, len(i.RepoTags))
	for _, tag := range i.RepoTags {
		if tag == "" || tag == placeholderTag {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// Dangling reports whether the image has no usable repo:tag references.
func (i Image) Dangling() bool {
	return len(i.Tags()) == 0
}

// ShortID returns the id truncated to the usual 12-character display form,
// without the digest algorithm prefix.
func (i Image) ShortID() string {
	id := strings.TrimPrefix(i.ID, "sha256:")
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// SplitRepoTag splits a repo:tag reference into repository and tag.
func SplitRepoTag(repoTag string) (string, string) {
	if repoTag == "" {
		return "", ""
	}

	idx := strings.LastIndex(repoTag, ":")
	if idx <= 0 || idx >= len(repoTag)-1 {
		return repoTag, ""
	}

	return repoTag[:idx], repoTag[idx+1:]
}

// KeepSet is the set of tags discovered as in use across the configured
// branches. Membership alone matters; branch origin is not tracked.
type KeepSet map[string]struct{}

// NewKeepSet creates a keep-set seeded with the given tags.
func NewKeepSet(tags ...string) KeepSet {
	s := make(KeepSet, len(tags))
	for _, tag := range tags {
		s.Add(tag)
	}
	return s
}

// Add inserts a tag into the set.
func (s KeepSet) Add(tag string) {
	s[tag] = struct{}{}
}

// Has reports whether the tag is in the set.
func (s KeepSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the member tags in lexical order.
func (s KeepSet) Sorted() []string {
	tags := make([]string, 0, len(s))
	for tag := range s {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
