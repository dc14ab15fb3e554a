// Package memstore is an in-process project store used when no database is
// configured and in tests. Every read returns a copy.
package memstore

import (
	"context"
	"database/sql"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"docportal-backend/internal/models"
)

type Store struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*models.Project
	now      func() time.Time
}

func New() *Store {
	return &Store{
		projects: make(map[uuid.UUID]*models.Project),
		now:      time.Now,
	}
}

func clone(p *models.Project) *models.Project {
	c := *p
	c.Files = slices.Clone(p.Files)
	c.Tags = slices.Clone(p.Tags)
	c.SectionOverrides = maps.Clone(p.SectionOverrides)
	if p.GenerationMetadata != nil {
		meta := *p.GenerationMetadata
		c.GenerationMetadata = &meta
	}
	return &c
}

func (s *Store) CreateProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.projects[p.ID] = clone(p)
	return nil
}

func (s *Store) GetProject(_ context.Context, id uuid.UUID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	return clone(p), nil
}

func (s *Store) ListProjectsByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	return s.list(func(p *models.Project) bool { return p.CreatedBy == ownerID }), nil
}

func (s *Store) ListPublicProjects(_ context.Context) ([]models.Project, error) {
	return s.list(func(p *models.Project) bool { return p.IsPublic }), nil
}

func (s *Store) ListAllProjects(_ context.Context) ([]models.Project, error) {
	return s.list(func(*models.Project) bool { return true }), nil
}

func (s *Store) list(keep func(*models.Project) bool) []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Project
	for _, p := range s.projects {
		if keep(p) {
			out = append(out, *clone(p))
		}
	}
	// Newest first.
	slices.SortFunc(out, func(a, b models.Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (s *Store) UpdateProjectDetails(_ context.Context, id uuid.UUID, req models.UpdateProjectRequest) error {
	return s.mutate(id, func(p *models.Project) {
		if req.Title != nil {
			p.Title = *req.Title
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Tags != nil {
			p.Tags = slices.Clone(*req.Tags)
		}
		if req.IsPublic != nil {
			p.IsPublic = *req.IsPublic
		}
	})
}

func (s *Store) DeleteProject(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return models.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *Store) UpdateProgress(_ context.Context, id uuid.UUID, epoch int64, progress int, message string) (bool, error) {
	return s.guarded(id, epoch, true, func(p *models.Project) {
		p.Progress = progress
		p.StatusMessage = sql.NullString{String: message, Valid: true}
	}), nil
}

func (s *Store) CompleteGeneration(_ context.Context, id uuid.UUID, epoch int64, documentation string, metadata models.GenerationMetadata, message string) (bool, error) {
	return s.guarded(id, epoch, false, func(p *models.Project) {
		p.Status = models.StatusCompleted
		p.Documentation = sql.NullString{String: documentation, Valid: true}
		p.GenerationMetadata = &metadata
		p.Progress = 100
		p.StatusMessage = sql.NullString{String: message, Valid: true}
		p.ErrorMessage = sql.NullString{}
	}), nil
}

func (s *Store) FailGeneration(_ context.Context, id uuid.UUID, epoch int64, errorMessage, message string) (bool, error) {
	return s.guarded(id, epoch, false, func(p *models.Project) {
		p.Status = models.StatusError
		p.ErrorMessage = sql.NullString{String: errorMessage, Valid: true}
		p.Progress = 0
		p.StatusMessage = sql.NullString{String: message, Valid: true}
	}), nil
}

func (s *Store) ResetForRegeneration(_ context.Context, id uuid.UUID, message string) (int64, error) {
	var epoch int64
	err := s.mutate(id, func(p *models.Project) {
		p.Status = models.StatusProcessing
		p.Progress = 0
		p.StatusMessage = sql.NullString{String: message, Valid: true}
		p.Documentation = sql.NullString{}
		p.GenerationMetadata = nil
		p.ErrorMessage = sql.NullString{}
		p.SectionOverrides = nil
		p.GenerationEpoch++
		epoch = p.GenerationEpoch
	})
	return epoch, err
}

func (s *Store) SaveSectionOverride(_ context.Context, id uuid.UUID, sectionID string, override models.SectionOverride) error {
	return s.mutate(id, func(p *models.Project) {
		if p.SectionOverrides == nil {
			p.SectionOverrides = make(map[string]models.SectionOverride)
		}
		p.SectionOverrides[sectionID] = override
	})
}

func (s *Store) OwnerStats(_ context.Context, ownerID uuid.UUID) (*models.ProjectStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.ProjectStats{}
	for _, p := range s.projects {
		if p.CreatedBy != ownerID {
			continue
		}
		stats.Total++
		stats.TotalFiles += len(p.Files)
		switch p.Status {
		case models.StatusProcessing:
			stats.Processing++
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusError:
			stats.Error++
		}
	}
	return stats, nil
}

func (s *Store) mutate(id uuid.UUID, fn func(*models.Project)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return models.ErrProjectNotFound
	}
	fn(p)
	p.UpdatedAt = s.now()
	return nil
}

// guarded applies fn only when epoch is current and, if processing is set,
// the project is still processing.
func (s *Store) guarded(id uuid.UUID, epoch int64, processing bool, fn func(*models.Project)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok || p.GenerationEpoch != epoch {
		return false
	}
	if processing && p.Status != models.StatusProcessing {
		return false
	}
	fn(p)
	p.UpdatedAt = s.now()
	return true
}
