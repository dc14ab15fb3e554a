package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"docportal-backend/internal/models"
)

const projectColumns = `id, title, description, status, progress, status_message, files,
	documentation, generation_metadata, error_message, created_by, tags, is_public,
	version, generation_epoch, section_overrides, created_at, updated_at`

// DatabaseClient is the Postgres implementation of the project store.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientFromDB wraps an already opened handle.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseClient) CreateProject(ctx context.Context, p *models.Project) error {
	filesJSON, err := json.Marshal(p.Files)
	if err != nil {
		return fmt.Errorf("failed to marshal files: %w", err)
	}

	err = d.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, title, description, status, progress, status_message, files,
			created_by, tags, is_public, version, generation_epoch)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, p.ID, p.Title, p.Description, p.Status, p.Progress, p.StatusMessage, filesJSON,
		p.CreatedBy, pq.StringArray(p.Tags), p.IsPublic, p.Version, p.GenerationEpoch,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (d *DatabaseClient) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID)

	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

func (d *DatabaseClient) ListProjectsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	return d.listProjects(ctx, `WHERE created_by = $1`, ownerID)
}

func (d *DatabaseClient) ListPublicProjects(ctx context.Context) ([]models.Project, error) {
	return d.listProjects(ctx, `WHERE is_public`)
}

func (d *DatabaseClient) ListAllProjects(ctx context.Context) ([]models.Project, error) {
	return d.listProjects(ctx, ``)
}

func (d *DatabaseClient) listProjects(ctx context.Context, where string, args ...any) ([]models.Project, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

func (d *DatabaseClient) UpdateProjectDetails(ctx context.Context, projectID uuid.UUID, req models.UpdateProjectRequest) error {
	var (
		title, description sql.NullString
		isPublic           sql.NullBool
		tags               pq.StringArray
	)
	if req.Title != nil {
		title = sql.NullString{String: *req.Title, Valid: true}
	}
	if req.Description != nil {
		description = sql.NullString{String: *req.Description, Valid: true}
	}
	if req.IsPublic != nil {
		isPublic = sql.NullBool{Bool: *req.IsPublic, Valid: true}
	}
	if req.Tags != nil {
		tags = pq.StringArray(*req.Tags)
		if tags == nil {
			tags = pq.StringArray{}
		}
	}

	result, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			tags = COALESCE($4, tags),
			is_public = COALESCE($5, is_public),
			updated_at = NOW()
		WHERE id = $1
	`, projectID, title, description, tags, isPublic)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return expectRow(result)
}

func (d *DatabaseClient) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return expectRow(result)
}

// UpdateProgress records progress of the generation identified by epoch. It
// never changes the status and is a no-op once the project left processing.
func (d *DatabaseClient) UpdateProgress(ctx context.Context, projectID uuid.UUID, epoch int64, progress int, message string) (bool, error) {
	result, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET progress = $3, status_message = $4, updated_at = NOW()
		WHERE id = $1 AND generation_epoch = $2 AND status = 'processing'
	`, projectID, epoch, progress, message)
	if err != nil {
		return false, fmt.Errorf("failed to update progress: %w", err)
	}

	return applied(result)
}

func (d *DatabaseClient) CompleteGeneration(ctx context.Context, projectID uuid.UUID, epoch int64, documentation string, metadata models.GenerationMetadata, message string) (bool, error) {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return false, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	result, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET status = 'completed', documentation = $3, generation_metadata = $4,
			progress = 100, status_message = $5, error_message = NULL, updated_at = NOW()
		WHERE id = $1 AND generation_epoch = $2
	`, projectID, epoch, documentation, metadataJSON, message)
	if err != nil {
		return false, fmt.Errorf("failed to complete generation: %w", err)
	}

	return applied(result)
}

func (d *DatabaseClient) FailGeneration(ctx context.Context, projectID uuid.UUID, epoch int64, errorMessage, message string) (bool, error) {
	result, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET status = 'error', error_message = $3, progress = 0, status_message = $4, updated_at = NOW()
		WHERE id = $1 AND generation_epoch = $2
	`, projectID, epoch, errorMessage, message)
	if err != nil {
		return false, fmt.Errorf("failed to record generation error: %w", err)
	}

	return applied(result)
}

// ResetForRegeneration clears the previous outcome, drops section edits and
// starts a new epoch. It returns the new epoch.
func (d *DatabaseClient) ResetForRegeneration(ctx context.Context, projectID uuid.UUID, message string) (int64, error) {
	var epoch int64
	err := d.db.QueryRowContext(ctx, `
		UPDATE projects
		SET status = 'processing', progress = 0, status_message = $2,
			documentation = NULL, generation_metadata = NULL, error_message = NULL,
			section_overrides = '{}'::jsonb, generation_epoch = generation_epoch + 1,
			updated_at = NOW()
		WHERE id = $1
		RETURNING generation_epoch
	`, projectID, message).Scan(&epoch)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrProjectNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to reset project: %w", err)
	}

	return epoch, nil
}

func (d *DatabaseClient) SaveSectionOverride(ctx context.Context, projectID uuid.UUID, sectionID string, override models.SectionOverride) error {
	overrideJSON, err := json.Marshal(override)
	if err != nil {
		return fmt.Errorf("failed to marshal section override: %w", err)
	}

	result, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET section_overrides = jsonb_set(section_overrides, ARRAY[$2::text], $3::jsonb, true),
			updated_at = NOW()
		WHERE id = $1
	`, projectID, sectionID, overrideJSON)
	if err != nil {
		return fmt.Errorf("failed to save section override: %w", err)
	}

	return expectRow(result)
}

func (d *DatabaseClient) OwnerStats(ctx context.Context, ownerID uuid.UUID) (*models.ProjectStats, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(jsonb_array_length(files)), 0)
		FROM projects
		WHERE created_by = $1
		GROUP BY status
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project stats: %w", err)
	}
	defer rows.Close()

	stats := &models.ProjectStats{}
	for rows.Next() {
		var (
			status       string
			count, files int
		)
		if err := rows.Scan(&status, &count, &files); err != nil {
			return nil, fmt.Errorf("failed to scan project stats: %w", err)
		}
		stats.Total += count
		stats.TotalFiles += files
		switch status {
		case models.StatusProcessing:
			stats.Processing = count
		case models.StatusCompleted:
			stats.Completed = count
		case models.StatusError:
			stats.Error = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query project stats: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p                                  models.Project
		filesJSON, metadataJSON, editsJSON []byte
		tags                               pq.StringArray
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Status, &p.Progress, &p.StatusMessage, &filesJSON,
		&p.Documentation, &metadataJSON, &p.ErrorMessage, &p.CreatedBy, &tags, &p.IsPublic,
		&p.Version, &p.GenerationEpoch, &editsJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Tags = []string(tags)
	if err := json.Unmarshal(filesJSON, &p.Files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	if len(metadataJSON) > 0 {
		var metadata models.GenerationMetadata
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to decode generation metadata: %w", err)
		}
		p.GenerationMetadata = &metadata
	}
	if len(editsJSON) > 0 {
		if err := json.Unmarshal(editsJSON, &p.SectionOverrides); err != nil {
			return nil, fmt.Errorf("failed to decode section overrides: %w", err)
		}
	}

	return &p, nil
}

func applied(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func expectRow(result sql.Result) error {
	ok, err := applied(result)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrProjectNotFound
	}
	return nil
}
