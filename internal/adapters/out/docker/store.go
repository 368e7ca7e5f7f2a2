// Package docker implements the image store adapter using the Docker API.
package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/bnema/sweep/internal/domain"
)

// imageAPI is the slice of the Docker client the store depends on.
type imageAPI interface {
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)
	ImagesPrune(ctx context.Context, pruneFilters filters.Args) (image.PruneReport, error)
}

// Store exposes the local image store to the purge pipeline.
type Store struct {
	api imageAPI
}

// NewStore creates a store backed by the ambient Docker daemon.
func NewStore() (*Store, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &Store{api: cli}, nil
}

// NewStoreWithAPI creates a store with a custom API client (for testing).
func NewStoreWithAPI(api imageAPI) *Store {
	return &Store{api: api}
}

// List returns every locally stored image with its tags, id and size.
func (s *Store) List(ctx context.Context) ([]domain.Image, error) {
	summaries, err := s.api.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	images := make([]domain.Image, 0, len(summaries))
	for _, summary := range summaries {
		images = append(images, domain.Image{
			ID:       summary.ID,
			RepoTags: summary.RepoTags,
			Size:     summary.Size,
		})
	}

	return images, nil
}

// Remove deletes a single image reference (repo:tag or id). Untagging a
// multi-tagged image only removes that reference; the image goes once its
// last reference does.
func (s *Store) Remove(ctx context.Context, ref string) error {
	_, err := s.api.ImageRemove(ctx, ref, image.RemoveOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove image %s: %w", ref, err)
	}

	return nil
}

// PruneDangling removes dangling images and their orphaned layers.
func (s *Store) PruneDangling(ctx context.Context) (domain.PruneReport, error) {
	report, err := s.api.ImagesPrune(ctx, filters.NewArgs(filters.Arg("dangling", "true")))
	if err != nil {
		return domain.PruneReport{}, fmt.Errorf("failed to prune images: %w", err)
	}

	return domain.PruneReport{
		Deleted:        len(report.ImagesDeleted),
		SpaceReclaimed: report.SpaceReclaimed,
	}, nil
}
