package handlers

import (
	"docportal-backend/internal/docgen"
	"docportal-backend/internal/models"
	"docportal-backend/internal/render"
	"docportal-backend/internal/sections"
)

func toProjectResponse(p *models.Project) models.ProjectResponse {
	resp := models.ProjectResponse{
		ID:                 p.ID.String(),
		Title:              p.Title,
		Description:        p.Description,
		Status:             p.Status,
		Progress:           p.Progress,
		StatusMessage:      p.StatusMessage.String,
		Files:              toFileInfos(p.Files),
		Documentation:      p.Documentation.String,
		GenerationMetadata: p.GenerationMetadata,
		ErrorMessage:       p.ErrorMessage.String,
		CreatedBy:          p.CreatedBy.String(),
		Tags:               p.Tags,
		IsPublic:           p.IsPublic,
		Version:            p.Version,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

func toProjectSummary(p *models.Project) models.ProjectSummary {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.ProjectSummary{
		ID:        p.ID.String(),
		Title:     p.Title,
		Status:    p.Status,
		Progress:  p.Progress,
		FileCount: len(p.Files),
		Tags:      tags,
		IsPublic:  p.IsPublic,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toFileInfos(files []models.ProjectFile) []models.FileInfo {
	out := make([]models.FileInfo, 0, len(files))
	for _, f := range files {
		out = append(out, models.FileInfo{
			Filename: f.OriginalName,
			Size:     f.Size,
			MimeType: f.MimeType,
			Language: docgen.Language(f.OriginalName),
		})
	}
	return out
}

func toStatusResponse(p *models.Project) models.StatusResponse {
	return models.StatusResponse{
		ProjectID:     p.ID.String(),
		Status:        p.Status,
		Progress:      p.Progress,
		StatusMessage: p.StatusMessage.String,
		ErrorMessage:  p.ErrorMessage.String,
		UpdatedAt:     p.UpdatedAt,
	}
}

// toSectionResponses renders the tree for the viewer. A main section shows
// only its lead; each subsection is rendered on its own.
func toSectionResponses(tree []sections.Section) []models.SectionResponse {
	out := make([]models.SectionResponse, 0, len(tree))
	for _, s := range tree {
		resp := sectionResponse(s, render.Render(sections.Lead(s)))
		for _, sub := range s.Subsections {
			resp.Subsections = append(resp.Subsections, sectionResponse(sub, render.Render(sub.FullContent)))
		}
		out = append(out, resp)
	}
	return out
}

func sectionResponse(s sections.Section, html string) models.SectionResponse {
	return models.SectionResponse{
		ID:       s.ID,
		Title:    s.Title,
		Icon:     s.Icon,
		Level:    s.Level,
		ParentID: s.ParentID,
		HTML:     html,
		Edited:   s.Edited,
	}
}
