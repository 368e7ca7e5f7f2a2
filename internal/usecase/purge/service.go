// Package purge implements the branch-aware image purge pipeline.
package purge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bnema/sweep/internal/domain"
)

type imageStore interface {
	List(ctx context.Context) ([]domain.Image, error)
	Remove(ctx context.Context, ref string) error
	PruneDangling(ctx context.Context) (domain.PruneReport, error)
}

type branchRepository interface {
	IsDirty(ctx context.Context) (bool, error)
	Checkout(ctx context.Context, branch string) error
	Discover(ctx context.Context, command string) ([]string, error)
}

// Service runs the purge pipeline: inventory, keep-set resolution,
// classification and execution. Collaborators are injected so the pipeline
// is testable without a Docker daemon or a real repository.
type Service struct {
	store imageStore
	repo  branchRepository
	log   *log.Logger
}

// NewService creates a new purge service.
func NewService(store imageStore, repo branchRepository, logger *log.Logger) *Service {
	return &Service{
		store: store,
		repo:  repo,
		log:   logger,
	}
}

// Inventory returns the full local image inventory. The result is a snapshot;
// it is not reconciled with later store changes.
func (s *Service) Inventory(ctx context.Context) ([]domain.Image, error) {
	images, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list local images: %w", err)
	}

	s.log.Debug("image inventory loaded", "count", len(images))
	return images, nil
}

// ResolveKeepSet checks out each branch in order and runs the discovery
// command, accumulating its non-empty stdout lines into one deduplicated set.
// A dirty working tree, a failed checkout or a failed discovery command abort
// the run; a partial keep-set is never returned.
func (s *Service) ResolveKeepSet(ctx context.Context, branches []string, command string) (domain.KeepSet, error) {
	dirty, err := s.repo.IsDirty(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check repository state: %w", err)
	}
	if dirty {
		return nil, errors.New("repository has uncommitted changes")
	}

	keep := domain.NewKeepSet()
	for _, branch := range branches {
		if err := s.repo.Checkout(ctx, branch); err != nil {
			return nil, fmt.Errorf("failed to checkout branch %s: %w", branch, err)
		}

		lines, err := s.repo.Discover(ctx, command)
		if err != nil {
			return nil, fmt.Errorf("discovery command failed on branch %s: %w", branch, err)
		}

		for _, line := range lines {
			tag := strings.TrimSpace(line)
			if tag == "" {
				continue
			}
			keep.Add(tag)
		}
	}

	for _, tag := range keep.Sorted() {
		s.log.Info("will keep image", "tag", tag)
	}

	return keep, nil
}

// Execute deletes every plan entry individually, best effort: a failed
// deletion is logged and skipped. Afterwards it always prunes dangling
// layers, regardless of how many deletions succeeded.
func (s *Service) Execute(ctx context.Context, plan domain.Plan) (domain.PurgeReport, error) {
	var report domain.PurgeReport

	for _, entry := range plan.Entries {
		if err := s.store.Remove(ctx, entry.Ref); err != nil {
			s.log.Error("failed to remove image", "ref", entry.Ref, "error", err)
			report.Failed = append(report.Failed, entry.Ref)
			continue
		}
		s.log.Info("removed image", "ref", entry.Ref)
		report.Removed = append(report.Removed, entry.Ref)
	}

	prune, err := s.store.PruneDangling(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to prune dangling layers: %w", err)
	}
	report.Prune = prune

	s.log.Info("pruned dangling layers",
		"deleted", prune.Deleted,
		"reclaimed_bytes", prune.SpaceReclaimed,
	)

	return report, nil
}
