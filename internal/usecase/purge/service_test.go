package purge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sweep/internal/domain"
)

type fakeStore struct {
	images   []domain.Image
	listErr  error
	removed  []string
	failRefs map[string]error
	prune    domain.PruneReport
	pruneErr error
	pruned   bool
}

func (f *fakeStore) List(_ context.Context) ([]domain.Image, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.images, nil
}

func (f *fakeStore) Remove(_ context.Context, ref string) error {
	if err, ok := f.failRefs[ref]; ok {
		return err
	}
	f.removed = append(f.removed, ref)
	return nil
}

func (f *fakeStore) PruneDangling(_ context.Context) (domain.PruneReport, error) {
	f.pruned = true
	if f.pruneErr != nil {
		return domain.PruneReport{}, f.pruneErr
	}
	return f.prune, nil
}

type fakeRepo struct {
	dirty       bool
	dirtyErr    error
	checkouts   []string
	checkoutErr map[string]error
	output      map[string][]string
	discoverErr map[string]error
	current     string
}

func (f *fakeRepo) IsDirty(_ context.Context) (bool, error) {
	return f.dirty, f.dirtyErr
}

func (f *fakeRepo) Checkout(_ context.Context, branch string) error {
	if err, ok := f.checkoutErr[branch]; ok {
		return err
	}
	f.checkouts = append(f.checkouts, branch)
	f.current = branch
	return nil
}

func (f *fakeRepo) Discover(_ context.Context, _ string) ([]string, error) {
	if err, ok := f.discoverErr[f.current]; ok {
		return nil, err
	}
	return f.output[f.current], nil
}

func TestService_Inventory_ReturnsImages(t *testing.T) {
	store := &fakeStore{images: []domain.Image{
		{ID: "sha256:111", RepoTags: []string{"myrepo:v1"}, Size: 10},
	}}
	svc := newTestService(store, &fakeRepo{})

	images, err := svc.Inventory(context.Background())

	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "sha256:111", images[0].ID)
}

func TestService_Inventory_PropagatesStoreError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("daemon unreachable")}
	svc := newTestService(store, &fakeRepo{})

	_, err := svc.Inventory(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list local images")
}

func TestService_ResolveKeepSet_UnionAcrossBranches(t *testing.T) {
	repo := &fakeRepo{
		output: map[string][]string{
			"main":    {"myrepo:v1", "", "  myrepo:v2  "},
			"staging": {"myrepo:v2", "myrepo:v3"},
		},
	}
	svc := newTestService(&fakeStore{}, repo)

	keep, err := svc.ResolveKeepSet(context.Background(), []string{"main", "staging"}, "make list-images")

	require.NoError(t, err)
	assert.Equal(t, []string{"main", "staging"}, repo.checkouts)
	assert.Equal(t, []string{"myrepo:v1", "myrepo:v2", "myrepo:v3"}, keep.Sorted())
}

func TestService_ResolveKeepSet_DirtyTreeAbortsBeforeCheckout(t *testing.T) {
	repo := &fakeRepo{dirty: true}
	svc := newTestService(&fakeStore{}, repo)

	_, err := svc.ResolveKeepSet(context.Background(), []string{"main"}, "make list-images")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "uncommitted changes")
	assert.Empty(t, repo.checkouts)
}

func TestService_ResolveKeepSet_DirtyCheckErrorIsFatal(t *testing.T) {
	repo := &fakeRepo{dirtyErr: errors.New("not a git repository")}
	svc := newTestService(&fakeStore{}, repo)

	_, err := svc.ResolveKeepSet(context.Background(), []string{"main"}, "make list-images")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check repository state")
}

func TestService_ResolveKeepSet_CheckoutFailureIsFatal(t *testing.T) {
	repo := &fakeRepo{
		checkoutErr: map[string]error{"staging": errors.New("pathspec not found")},
		output:      map[string][]string{"main": {"myrepo:v1"}},
	}
	svc := newTestService(&fakeStore{}, repo)

	_, err := svc.ResolveKeepSet(context.Background(), []string{"main", "staging"}, "make list-images")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to checkout branch staging")
}

func TestService_ResolveKeepSet_DiscoveryFailureIsFatal(t *testing.T) {
	repo := &fakeRepo{
		output:      map[string][]string{"main": {"myrepo:v1"}},
		discoverErr: map[string]error{"staging": errors.New("exit status 2")},
	}
	svc := newTestService(&fakeStore{}, repo)

	_, err := svc.ResolveKeepSet(context.Background(), []string{"main", "staging"}, "make list-images")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery command failed on branch staging")
}

func TestService_Execute_BestEffortDeletion(t *testing.T) {
	store := &fakeStore{
		failRefs: map[string]error{"myrepo:v2": errors.New("image is in use")},
		prune:    domain.PruneReport{Deleted: 2, SpaceReclaimed: 2048},
	}
	svc := newTestService(store, &fakeRepo{})

	plan := domain.Plan{Entries: []domain.PlanEntry{
		{Ref: "myrepo:v1", ImageID: "sha256:111"},
		{Ref: "myrepo:v2", ImageID: "sha256:222"},
		{Ref: "myrepo:v3", ImageID: "sha256:333"},
	}}

	report, err := svc.Execute(context.Background(), plan)

	require.NoError(t, err)
	assert.Equal(t, []string{"myrepo:v1", "myrepo:v3"}, report.Removed)
	assert.Equal(t, []string{"myrepo:v2"}, report.Failed)
	assert.True(t, store.pruned)
	assert.Equal(t, 2, report.Prune.Deleted)
	assert.Equal(t, uint64(2048), report.Prune.SpaceReclaimed)
}

func TestService_Execute_PruneRunsEvenWhenAllDeletionsFail(t *testing.T) {
	store := &fakeStore{
		failRefs: map[string]error{"myrepo:v1": errors.New("in use")},
	}
	svc := newTestService(store, &fakeRepo{})

	plan := domain.Plan{Entries: []domain.PlanEntry{{Ref: "myrepo:v1", ImageID: "sha256:111"}}}
	report, err := svc.Execute(context.Background(), plan)

	require.NoError(t, err)
	assert.Empty(t, report.Removed)
	assert.True(t, store.pruned)
}

func TestService_Execute_PruneFailureSurfaces(t *testing.T) {
	store := &fakeStore{pruneErr: errors.New("daemon gone")}
	svc := newTestService(store, &fakeRepo{})

	report, err := svc.Execute(context.Background(), domain.Plan{
		Entries: []domain.PlanEntry{{Ref: "myrepo:v1", ImageID: "sha256:111"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prune dangling layers")
	// Deletions attempted before the prune are still reported.
	assert.Equal(t, []string{"myrepo:v1"}, report.Removed)
}

// Scenario: one branch prints one keep-tag, two tagged images present, no
// patterns configured.
func TestPipeline_KeepSetDrivesRemoval(t *testing.T) {
	store := &fakeStore{images: []domain.Image{
		{ID: "sha256:111", RepoTags: []string{"myrepo:v1"}, Size: 100},
		{ID: "sha256:222", RepoTags: []string{"myrepo:v2"}, Size: 200},
	}}
	repo := &fakeRepo{output: map[string][]string{"main": {"myrepo:v1"}}}
	svc := newTestService(store, repo)

	images, err := svc.Inventory(context.Background())
	require.NoError(t, err)

	keep, err := svc.ResolveKeepSet(context.Background(), []string{"main"}, "make list-images")
	require.NoError(t, err)

	plan := svc.BuildPlan(images, keep, domain.Rules{RemoveDangling: true})

	assert.Equal(t, []string{"myrepo:v2"}, plan.Refs())
	assert.Equal(t, int64(200), plan.SizeEstimate)
}
