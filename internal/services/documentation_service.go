// Package services holds the project state machine: creation, background
// documentation generation, regeneration and section edits.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/docker/go-units"
	"github.com/google/uuid"

	"docportal-backend/internal/docgen"
	"docportal-backend/internal/extractor"
	"docportal-backend/internal/models"
	"docportal-backend/internal/render"
	"docportal-backend/internal/sections"
)

const (
	minTitleLength       = 2
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	uploadRetries        = 3

	defaultMaxFiles     = 20
	defaultMaxFileBytes = 10 * units.MB
)

// Status messages written while a project moves through generation.
const (
	MessageQueued       = "Queued for documentation generation"
	MessageInitializing = "Initializing..."
	MessageAnalyzing    = "Analyzing uploaded files..."
	MessageGenerating   = "Generating documentation..."
	MessageFinalizing   = "Finalizing documentation..."
	MessageSaving       = "Saving..."
	MessageCompleted    = "Documentation generated successfully"
	MessageFailed       = "Documentation generation failed"
)

// ProjectStore persists projects. Generation writes carry the epoch they
// were dispatched with and report whether they were applied.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	ListPublicProjects(ctx context.Context) ([]models.Project, error)
	ListAllProjects(ctx context.Context) ([]models.Project, error)
	UpdateProjectDetails(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
	UpdateProgress(ctx context.Context, id uuid.UUID, epoch int64, progress int, message string) (bool, error)
	CompleteGeneration(ctx context.Context, id uuid.UUID, epoch int64, documentation string, metadata models.GenerationMetadata, message string) (bool, error)
	FailGeneration(ctx context.Context, id uuid.UUID, epoch int64, errorMessage, message string) (bool, error)
	ResetForRegeneration(ctx context.Context, id uuid.UUID, message string) (int64, error)
	SaveSectionOverride(ctx context.Context, id uuid.UUID, sectionID string, override models.SectionOverride) error
	OwnerStats(ctx context.Context, ownerID uuid.UUID) (*models.ProjectStats, error)
}

// BlobStore keeps the raw text of uploaded files.
type BlobStore interface {
	UploadFile(userID, projectID uuid.UUID, filename string, data []byte, contentType string) (string, string, error)
	DownloadFile(storagePath string) ([]byte, error)
	DeleteProjectFiles(userID, projectID uuid.UUID) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type Generator interface {
	Generate(ctx context.Context, in docgen.Input) (*docgen.Result, error)
}

type CreateProjectInput struct {
	Title       string
	Description string
	Tags        []string
	IsPublic    bool
	Uploads     []extractor.RawUpload
}

type DocumentationService struct {
	store     ProjectStore
	blobs     BlobStore
	extractor *extractor.Extractor
	generator Generator
	logger    *slog.Logger

	timeout      time.Duration
	backoffs     []time.Duration
	now          func() time.Time
	maxFiles     int
	maxFileBytes int64

	wg sync.WaitGroup
}

type Option func(*DocumentationService)

// WithGenerationTimeout bounds a single background generation.
func WithGenerationTimeout(d time.Duration) Option {
	return func(s *DocumentationService) {
		s.timeout = d
	}
}

// WithUploadBackoffs replaces the pauses between blob upload attempts.
func WithUploadBackoffs(backoffs ...time.Duration) Option {
	return func(s *DocumentationService) {
		s.backoffs = backoffs
	}
}

// WithUploadLimits caps the number of uploaded files and the size of each.
func WithUploadLimits(maxFiles int, maxFileBytes int64) Option {
	return func(s *DocumentationService) {
		s.maxFiles = maxFiles
		s.maxFileBytes = maxFileBytes
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *DocumentationService) {
		s.now = now
	}
}

func NewDocumentationService(store ProjectStore, blobs BlobStore, ext *extractor.Extractor, generator Generator, logger *slog.Logger, opts ...Option) *DocumentationService {
	s := &DocumentationService{
		store:     store,
		blobs:     blobs,
		extractor: ext,
		generator: generator,
		logger:    logger.With("system", "documentation"),
		timeout:      10 * time.Minute,
		backoffs:     defaultBackoffs,
		now:          time.Now,
		maxFiles:     defaultMaxFiles,
		maxFileBytes: defaultMaxFileBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wait blocks until every dispatched generation has finished.
func (s *DocumentationService) Wait() {
	s.wg.Wait()
}

// CreateProject validates the input, extracts and stores the uploaded files,
// persists the project and starts generation in the background. The returned
// project is still processing.
func (s *DocumentationService) CreateProject(ctx context.Context, owner uuid.UUID, in CreateProjectInput) (*models.Project, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)

	if n := utf8.RuneCountInString(title); n < minTitleLength || n > maxTitleLength {
		return nil, &ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("must be between %d and %d characters", minTitleLength, maxTitleLength),
		}
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, &ValidationError{
			Field:   "description",
			Message: fmt.Sprintf("must be at most %d characters", maxDescriptionLength),
		}
	}
	if err := s.checkUploads(in.Uploads); err != nil {
		return nil, err
	}

	extracted, err := s.extractor.Extract(in.Uploads)
	if err != nil {
		return nil, &ValidationError{Field: "files", Message: err.Error(), Err: err}
	}

	project := &models.Project{
		ID:              uuid.New(),
		Title:           title,
		Description:     description,
		Status:          models.StatusProcessing,
		StatusMessage:   sql.NullString{String: MessageQueued, Valid: true},
		CreatedBy:       owner,
		Tags:            normalizeTags(in.Tags),
		IsPublic:        in.IsPublic,
		Version:         models.DefaultVersion,
		GenerationEpoch: 1,
	}

	for _, f := range extracted {
		var storagePath string
		err := retryWithBackoff(func() error {
			var err error
			storagePath, _, err = s.blobs.UploadFile(owner, project.ID, f.StoredName, []byte(f.Content), f.MimeType)
			return err
		}, uploadRetries, s.backoffs)
		if err != nil {
			s.discardBlobs(owner, project.ID)
			return nil, fmt.Errorf("failed to store %s: %w", f.OriginalName, err)
		}

		project.Files = append(project.Files, models.ProjectFile{
			OriginalName: f.OriginalName,
			StoredName:   f.StoredName,
			StoragePath:  storagePath,
			Size:         f.Size,
			MimeType:     f.MimeType,
			Content:      f.Content,
		})
	}

	if err := s.store.CreateProject(ctx, project); err != nil {
		s.discardBlobs(owner, project.ID)
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("project created", "project_id", project.ID, "files", len(project.Files))
	s.dispatch(project.ID, project.GenerationEpoch)
	return project, nil
}

func (s *DocumentationService) checkUploads(uploads []extractor.RawUpload) error {
	if len(uploads) == 0 {
		return &ValidationError{Field: "files", Message: "at least one file is required"}
	}
	if len(uploads) > s.maxFiles {
		return &ValidationError{
			Field:   "files",
			Message: fmt.Sprintf("%d files uploaded, at most %d allowed", len(uploads), s.maxFiles),
			Err:     ErrTooManyFiles,
		}
	}
	for _, u := range uploads {
		if size := int64(len(u.Data)); size > s.maxFileBytes {
			return &ValidationError{
				Field: "files",
				Message: fmt.Sprintf("%s is too large (%s), maximum is %s",
					u.Filename, units.HumanSize(float64(size)), units.HumanSize(float64(s.maxFileBytes))),
				Err: ErrFileTooLarge,
			}
		}
	}
	return nil
}

func (s *DocumentationService) discardBlobs(owner, projectID uuid.UUID) {
	if err := s.blobs.DeleteProjectFiles(owner, projectID); err != nil {
		s.logger.Warn("failed to clean up project files", "project_id", projectID, "error", err)
	}
}

// GetProject returns the project if the actor may read it. Projects the
// actor cannot see are reported as not found.
func (s *DocumentationService) GetProject(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanRead(project) {
		return nil, models.ErrProjectNotFound
	}
	return project, nil
}

func (s *DocumentationService) writable(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanWrite(project) {
		return nil, models.ErrProjectNotFound
	}
	return project, nil
}

// ListProjects lists public projects for guests, every project for admins
// and the caller's own projects otherwise.
func (s *DocumentationService) ListProjects(ctx context.Context, actor *models.Actor, publicOnly bool) ([]models.Project, error) {
	switch {
	case actor == nil || publicOnly:
		return s.store.ListPublicProjects(ctx)
	case actor.IsAdmin():
		return s.store.ListAllProjects(ctx)
	default:
		return s.store.ListProjectsByOwner(ctx, actor.UserID)
	}
}

func (s *DocumentationService) UpdateProject(ctx context.Context, actor *models.Actor, id uuid.UUID, req models.UpdateProjectRequest) (*models.Project, error) {
	if _, err := s.writable(ctx, actor, id); err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if n := utf8.RuneCountInString(title); n < minTitleLength || n > maxTitleLength {
			return nil, &ValidationError{
				Field:   "title",
				Message: fmt.Sprintf("must be between %d and %d characters", minTitleLength, maxTitleLength),
			}
		}
		req.Title = &title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if utf8.RuneCountInString(description) > maxDescriptionLength {
			return nil, &ValidationError{
				Field:   "description",
				Message: fmt.Sprintf("must be at most %d characters", maxDescriptionLength),
			}
		}
		req.Description = &description
	}
	if req.Tags != nil {
		tags := normalizeTags(*req.Tags)
		req.Tags = &tags
	}

	if err := s.store.UpdateProjectDetails(ctx, id, req); err != nil {
		return nil, err
	}
	return s.store.GetProject(ctx, id)
}

// DeleteProject removes the project and its stored files. A generation that
// is still running finds the project gone and stops.
func (s *DocumentationService) DeleteProject(ctx context.Context, actor *models.Actor, id uuid.UUID) error {
	project, err := s.writable(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.discardBlobs(project.CreatedBy, id)

	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// Regenerate discards the current documentation and section edits and
// starts a new generation from the stored files. A generation still running
// for an earlier epoch can no longer write its result.
func (s *DocumentationService) Regenerate(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Project, error) {
	if _, err := s.writable(ctx, actor, id); err != nil {
		return nil, err
	}

	epoch, err := s.store.ResetForRegeneration(ctx, id, MessageQueued)
	if err != nil {
		return nil, err
	}

	s.logger.Info("regeneration requested", "project_id", id, "epoch", epoch)
	project, err := s.store.GetProject(ctx, id)
	s.dispatch(id, epoch)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *DocumentationService) GetFile(ctx context.Context, actor *models.Actor, id uuid.UUID, filename string) (*models.ProjectFile, error) {
	project, err := s.GetProject(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	file, ok := project.FindFile(filename)
	if !ok {
		return nil, ErrFileNotFound
	}
	if file.Content != "" || file.StoragePath == "" {
		return file, nil
	}

	// Rows written without inline content are served from the blob store.
	data, err := s.blobs.DownloadFile(file.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load file %s: %w", file.OriginalName, err)
	}
	loaded := *file
	loaded.Content = string(data)
	return &loaded, nil
}

// Ping reports whether the project store is reachable. Stores without a
// connection are always ready.
func (s *DocumentationService) Ping(ctx context.Context) error {
	if p, ok := s.store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *DocumentationService) Stats(ctx context.Context, actor *models.Actor) (*models.ProjectStats, error) {
	return s.store.OwnerStats(ctx, actor.UserID)
}

// Sections parses the project's documentation with saved edits applied.
func (s *DocumentationService) Sections(ctx context.Context, actor *models.Actor, id uuid.UUID) ([]sections.Section, error) {
	project, err := s.GetProject(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return projectSections(project)
}

func projectSections(project *models.Project) ([]sections.Section, error) {
	if project.Status != models.StatusCompleted || !project.Documentation.Valid {
		return nil, ErrNoDocumentation
	}
	return sections.ParseWithOverrides(project.Documentation.String, project.OverrideContents()), nil
}

// SaveSection stores an editor buffer as the new content of one section. The
// generated documentation itself is left untouched. It returns the section's
// display markup.
func (s *DocumentationService) SaveSection(ctx context.Context, actor *models.Actor, id uuid.UUID, sectionID, buffer string) (string, error) {
	project, err := s.writable(ctx, actor, id)
	if err != nil {
		return "", err
	}

	tree, err := projectSections(project)
	if err != nil {
		return "", err
	}
	if _, ok := sections.Find(tree, sectionID); !ok {
		return "", ErrSectionNotFound
	}

	content := render.FromEditableBuffer(buffer)
	override := models.SectionOverride{Content: content, UpdatedAt: s.now()}
	if err := s.store.SaveSectionOverride(ctx, id, sectionID, override); err != nil {
		return "", err
	}

	s.logger.Info("section saved", "project_id", id, "section_id", sectionID)
	return render.Render(content), nil
}

func normalizeTags(tags []string) []string {
	out := []string{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func (s *DocumentationService) dispatch(id uuid.UUID, epoch int64) {
	s.wg.Add(1)
	go s.generate(id, epoch)
}

// generate runs one generation. Every write is guarded by epoch, so a run
// that was superseded by a regeneration or whose project was deleted ends
// without touching the stored project.
func (s *DocumentationService) generate(id uuid.UUID, epoch int64) {
	defer s.wg.Done()

	logger := s.logger.With("project_id", id, "epoch", epoch)
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("generation panicked", "panic", r)
			s.fail(id, epoch, fmt.Errorf("internal error: %v", r), logger)
		}
	}()

	project, err := s.store.GetProject(ctx, id)
	if errors.Is(err, models.ErrProjectNotFound) {
		logger.Info("project deleted before generation started")
		return
	}
	if err != nil {
		s.fail(id, epoch, err, logger)
		return
	}
	if project.GenerationEpoch != epoch {
		logger.Info("generation superseded before it started")
		return
	}

	step := func(progress int, message string) bool {
		applied, err := s.store.UpdateProgress(ctx, id, epoch, progress, message)
		if err != nil {
			logger.Warn("failed to update progress", "progress", progress, "error", err)
			return true
		}
		if !applied {
			logger.Info("generation superseded", "progress", progress)
		}
		return applied
	}

	if !step(10, MessageInitializing) || !step(25, MessageAnalyzing) {
		return
	}

	input := docgen.Input{Title: project.Title, Description: project.Description}
	for _, f := range project.Files {
		input.Files = append(input.Files, docgen.File{Name: f.OriginalName, Size: f.Size, Content: f.Content})
	}

	if !step(50, MessageGenerating) {
		return
	}

	result, err := s.generator.Generate(ctx, input)
	if err != nil {
		s.fail(id, epoch, err, logger)
		return
	}

	if !step(75, MessageFinalizing) || !step(90, MessageSaving) {
		return
	}

	metadata := models.GenerationMetadata{
		Model:            result.Model,
		TokensUsed:       result.TokensUsed,
		ProcessingTimeMs: result.ProcessingTimeMs,
		GeneratedAt:      result.GeneratedAt,
		RetryCount:       int(epoch - 1),
	}

	applied, err := s.store.CompleteGeneration(ctx, id, epoch, result.Content, metadata, MessageCompleted)
	if err != nil {
		s.fail(id, epoch, err, logger)
		return
	}
	if !applied {
		logger.Info("discarding stale generation result")
		return
	}

	logger.Info("documentation generated", "model", result.Model, "tokens", result.TokensUsed, "duration_ms", result.ProcessingTimeMs)
}

func (s *DocumentationService) fail(id uuid.UUID, epoch int64, cause error, logger *slog.Logger) {
	logger.Error("generation failed", "error", cause)

	// The generation context may already be expired.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	applied, err := s.store.FailGeneration(ctx, id, epoch, cause.Error(), MessageFailed)
	if err != nil {
		logger.Error("failed to record generation error", "error", err)
		return
	}
	if !applied {
		logger.Info("discarding stale generation error")
	}
}
