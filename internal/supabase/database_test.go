package supabase_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal-backend/internal/models"
	"docportal-backend/internal/supabase"
)

var columns = []string{
	"id", "title", "description", "status", "progress", "status_message", "files",
	"documentation", "generation_metadata", "error_message", "created_by", "tags", "is_public",
	"version", "generation_epoch", "section_overrides", "created_at", "updated_at",
}

func newStore(t *testing.T) (*supabase.DatabaseClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return supabase.NewDatabaseClientFromDB(db), mock
}

func TestGetProject(t *testing.T) {
	store, mock := newStore(t)
	id, owner := uuid.New(), uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows(columns).AddRow(
		id.String(), "Demo", "desc", models.StatusCompleted, 100, "done",
		[]byte(`[{"original_name":"main.go","stored_name":"abc_main.go","size":12,"mime_type":"text/plain","content":"package main"}]`),
		"# Demo", []byte(`{"model":"gpt-4o-mini","tokens_used":42,"retry_count":1}`), nil,
		owner.String(), "{go,cli}", true, models.DefaultVersion, int64(2),
		[]byte(`{"demo":{"content":"<p>x</p>"}}`), now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1")).WithArgs(id).WillReturnRows(rows)

	p, err := store.GetProject(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "Demo", p.Title)
	assert.Equal(t, []string{"go", "cli"}, p.Tags)
	require.Len(t, p.Files, 1)
	assert.Equal(t, "main.go", p.Files[0].OriginalName)
	require.NotNil(t, p.GenerationMetadata)
	assert.Equal(t, 42, p.GenerationMetadata.TokensUsed)
	assert.Equal(t, "<p>x</p>", p.SectionOverrides["demo"].Content)
	assert.Equal(t, "# Demo", p.Documentation.String)
	assert.False(t, p.ErrorMessage.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProjectNotFound(t *testing.T) {
	store, mock := newStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1")).WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := store.GetProject(context.Background(), id)
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}

func TestUpdateProgressIsGuarded(t *testing.T) {
	store, mock := newStore(t)
	id := uuid.New()

	query := regexp.QuoteMeta("WHERE id = $1 AND generation_epoch = $2 AND status = 'processing'")
	mock.ExpectExec(query).WithArgs(id, int64(1), 50, "Generating").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(id, int64(1), 75, "Finalizing").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.UpdateProgress(context.Background(), id, 1, 50, "Generating")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.UpdateProgress(context.Background(), id, 1, 75, "Finalizing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteGenerationStaleEpoch(t *testing.T) {
	store, mock := newStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'completed'")).
		WithArgs(id, int64(1), "# Doc", sqlmock.AnyArg(), "done").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.CompleteGeneration(context.Background(), id, 1, "# Doc", models.GenerationMetadata{Model: "m"}, "done")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailGeneration(t *testing.T) {
	store, mock := newStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'error'")).
		WithArgs(id, int64(3), "boom", "failed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := store.FailGeneration(context.Background(), id, 3, "boom", "failed")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetForRegeneration(t *testing.T) {
	store, mock := newStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("generation_epoch = generation_epoch + 1")).
		WithArgs(id, "Queued").
		WillReturnRows(sqlmock.NewRows([]string{"generation_epoch"}).AddRow(int64(4)))

	epoch, err := store.ResetForRegeneration(context.Background(), id, "Queued")
	require.NoError(t, err)
	assert.Equal(t, int64(4), epoch)

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING generation_epoch")).
		WithArgs(id, "Queued").
		WillReturnError(sql.ErrNoRows)

	_, err = store.ResetForRegeneration(context.Background(), id, "Queued")
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}

func TestDeleteProjectMissing(t *testing.T) {
	store, mock := newStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.DeleteProject(context.Background(), id), models.ErrProjectNotFound)
}

func TestSaveSectionOverride(t *testing.T) {
	store, mock := newStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("jsonb_set(section_overrides")).
		WithArgs(id, "setup", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveSectionOverride(context.Background(), id, "setup", models.SectionOverride{Content: "x"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerStats(t *testing.T) {
	store, mock := newStore(t)
	owner := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).WithArgs(owner).WillReturnRows(
		sqlmock.NewRows([]string{"status", "count", "files"}).
			AddRow(models.StatusCompleted, 3, 10).
			AddRow(models.StatusProcessing, 1, 2).
			AddRow(models.StatusError, 2, 0),
	)

	stats, err := store.OwnerStats(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStats{Total: 6, Processing: 1, Completed: 3, Error: 2, TotalFiles: 12}, *stats)
}

func TestUpdateProjectDetails(t *testing.T) {
	store, mock := newStore(t)
	id := uuid.New()
	title := "Renamed"

	mock.ExpectExec(regexp.QuoteMeta("COALESCE($2, title)")).
		WithArgs(id, sql.NullString{String: title, Valid: true}, sql.NullString{}, sqlmock.AnyArg(), sql.NullBool{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateProjectDetails(context.Background(), id, models.UpdateProjectRequest{Title: &title})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
