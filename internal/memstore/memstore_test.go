package memstore_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal-backend/internal/memstore"
	"docportal-backend/internal/models"
)

func newProject(owner uuid.UUID, public bool) *models.Project {
	return &models.Project{
		ID:              uuid.New(),
		Title:           "Demo",
		Status:          models.StatusProcessing,
		CreatedBy:       owner,
		IsPublic:        public,
		Version:         models.DefaultVersion,
		GenerationEpoch: 1,
		Files:           []models.ProjectFile{{OriginalName: "main.go"}},
	}
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := newProject(uuid.New(), false)
	require.NoError(t, store.CreateProject(ctx, p))

	got, err := store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	got.Files[0].OriginalName = "changed.go"
	got.Title = "changed"

	again, err := store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Demo", again.Title)
	assert.Equal(t, "main.go", again.Files[0].OriginalName)
}

func TestEpochGuards(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := newProject(uuid.New(), false)
	require.NoError(t, store.CreateProject(ctx, p))

	ok, err := store.UpdateProgress(ctx, p.ID, 1, 50, "Generating")
	require.NoError(t, err)
	assert.True(t, ok)

	epoch, err := store.ResetForRegeneration(ctx, p.ID, "Queued")
	require.NoError(t, err)
	assert.Equal(t, int64(2), epoch)

	ok, _ = store.CompleteGeneration(ctx, p.ID, 1, "# stale", models.GenerationMetadata{}, "done")
	assert.False(t, ok)

	ok, _ = store.CompleteGeneration(ctx, p.ID, 2, "# fresh", models.GenerationMetadata{Model: "m"}, "done")
	assert.True(t, ok)

	// Progress after completion is ignored.
	ok, _ = store.UpdateProgress(ctx, p.ID, 2, 75, "late")
	assert.False(t, ok)

	got, err := store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "# fresh", got.Documentation.String)
}

func TestResetClearsOverrides(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := newProject(uuid.New(), false)
	require.NoError(t, store.CreateProject(ctx, p))

	require.NoError(t, store.SaveSectionOverride(ctx, p.ID, "setup", models.SectionOverride{Content: "x"}))
	got, _ := store.GetProject(ctx, p.ID)
	assert.Len(t, got.SectionOverrides, 1)

	_, err := store.ResetForRegeneration(ctx, p.ID, "Queued")
	require.NoError(t, err)
	got, _ = store.GetProject(ctx, p.ID)
	assert.Empty(t, got.SectionOverrides)
	assert.False(t, got.Documentation.Valid)
}

func TestListingAndStats(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	owner := uuid.New()

	mine := newProject(owner, false)
	shared := newProject(owner, true)
	other := newProject(uuid.New(), true)
	for _, p := range []*models.Project{mine, shared, other} {
		require.NoError(t, store.CreateProject(ctx, p))
	}
	_, _ = store.FailGeneration(ctx, mine.ID, 1, "boom", "failed")

	owned, _ := store.ListProjectsByOwner(ctx, owner)
	assert.Len(t, owned, 2)
	public, _ := store.ListPublicProjects(ctx)
	assert.Len(t, public, 2)
	all, _ := store.ListAllProjects(ctx)
	assert.Len(t, all, 3)

	stats, err := store.OwnerStats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStats{Total: 2, Processing: 1, Error: 1, TotalFiles: 2}, *stats)
}

func TestMissingProject(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	id := uuid.New()

	_, err := store.GetProject(ctx, id)
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
	assert.ErrorIs(t, store.DeleteProject(ctx, id), models.ErrProjectNotFound)
	_, err = store.ResetForRegeneration(ctx, id, "Queued")
	assert.ErrorIs(t, err, models.ErrProjectNotFound)

	ok, err := store.UpdateProgress(ctx, id, 1, 10, "x")
	assert.NoError(t, err)
	assert.False(t, ok)
}
