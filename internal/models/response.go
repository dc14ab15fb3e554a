package models

import "time"

type ProjectResponse struct {
	ID                 string              `json:"project_id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Status             string              `json:"status"`
	Progress           int                 `json:"progress"`
	StatusMessage      string              `json:"status_message,omitempty"`
	Files              []FileInfo          `json:"files"`
	Documentation      string              `json:"documentation,omitempty"`
	GenerationMetadata *GenerationMetadata `json:"generation_metadata,omitempty"`
	ErrorMessage       string              `json:"error_message,omitempty"`
	CreatedBy          string              `json:"created_by"`
	Tags               []string            `json:"tags"`
	IsPublic           bool                `json:"is_public"`
	Version            string              `json:"version"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type ProjectSummary struct {
	ID        string    `json:"project_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	FileCount int       `json:"file_count"`
	Tags      []string  `json:"tags"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Language string `json:"language"`
}

type FilesResponse struct {
	Files []FileInfo `json:"files"`
}

type FileContentResponse struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
}

type StatusResponse struct {
	ProjectID     string    `json:"project_id"`
	Status        string    `json:"status"`
	Progress      int       `json:"progress"`
	StatusMessage string    `json:"status_message,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SectionResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Icon        string            `json:"icon"`
	Level       int               `json:"level"`
	ParentID    string            `json:"parent_id,omitempty"`
	HTML        string            `json:"html"`
	Edited      bool              `json:"edited"`
	Subsections []SectionResponse `json:"subsections,omitempty"`
}

type SectionsResponse struct {
	ProjectID string            `json:"project_id"`
	Sections  []SectionResponse `json:"sections"`
}

type SaveSectionResponse struct {
	SectionID string `json:"section_id"`
	HTML      string `json:"html"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
