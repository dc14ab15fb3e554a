package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Project statuses. A project starts in StatusProcessing and moves to
// StatusCompleted or StatusError once its generation task finishes.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	DefaultVersion = "1.0.0"

	// RichHTMLMarker prefixes section content that was saved from the
	// WYSIWYG editor and must be displayed verbatim.
	RichHTMLMarker = "<!-- rich-html -->"
)

var ErrProjectNotFound = errors.New("project not found")

type Project struct {
	ID                 uuid.UUID
	Title              string
	Description        string
	Status             string
	Progress           int
	StatusMessage      sql.NullString
	Files              []ProjectFile
	Documentation      sql.NullString
	GenerationMetadata *GenerationMetadata
	ErrorMessage       sql.NullString
	CreatedBy          uuid.UUID
	Tags               []string
	IsPublic           bool
	Version            string
	GenerationEpoch    int64
	SectionOverrides   map[string]SectionOverride
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProjectFile is one uploaded (or archive-extracted) file. Files are written
// once at creation and never change afterwards.
type ProjectFile struct {
	OriginalName string `json:"original_name"`
	StoredName   string `json:"stored_name"`
	StoragePath  string `json:"storage_path"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
	Content      string `json:"content"`
}

type GenerationMetadata struct {
	Model            string    `json:"model"`
	TokensUsed       int       `json:"tokens_used"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	GeneratedAt      time.Time `json:"generated_at"`
	RetryCount       int       `json:"retry_count"`
}

type SectionOverride struct {
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectStats struct {
	Total      int `json:"total"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Error      int `json:"error"`
	TotalFiles int `json:"total_files"`
}

// FindFile returns the file whose original name matches name.
func (p *Project) FindFile(name string) (*ProjectFile, bool) {
	for i := range p.Files {
		if p.Files[i].OriginalName == name {
			return &p.Files[i], true
		}
	}
	return nil, false
}

// OverrideContents flattens SectionOverrides into section id -> content.
func (p *Project) OverrideContents() map[string]string {
	if len(p.SectionOverrides) == 0 {
		return nil
	}
	out := make(map[string]string, len(p.SectionOverrides))
	for id, o := range p.SectionOverrides {
		out[id] = o.Content
	}
	return out
}
