package models

// UpdateProjectRequest carries a partial metadata update. Nil fields are left
// untouched.
type UpdateProjectRequest struct {
	Title       *string   `json:"title,omitempty" example:"Payment Service"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsPublic    *bool     `json:"is_public,omitempty"`
}

type SaveSectionRequest struct {
	// Content is the editor buffer. It is stored with the rich-html marker
	// prepended.
	Content string `json:"content" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
