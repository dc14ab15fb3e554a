package client

import (
	"context"
	"fmt"

	"docportal-backend/internal/models"
	"docportal-backend/internal/render"
)

// SectionEditor edits the sections of one project and saves them through
// the API.
type SectionEditor struct {
	client    *Client
	projectID string
	editor    *render.Editor
}

func (c *Client) NewSectionEditor(projectID string) *SectionEditor {
	return &SectionEditor{
		client:    c,
		projectID: projectID,
		editor:    render.NewEditor(),
	}
}

// Open starts editing section and returns the editable buffer.
func (e *SectionEditor) Open(section models.SectionResponse) string {
	return e.editor.Begin(section.ID, section.HTML)
}

func (e *SectionEditor) Update(buffer string) error {
	return e.editor.Update(buffer)
}

func (e *SectionEditor) Cancel() {
	e.editor.Cancel()
}

// Save sends the open section's buffer. The buffer stays cached, so after a
// failed save reopening the section shows the unsaved edits.
func (e *SectionEditor) Save(ctx context.Context) (*models.SaveSectionResponse, error) {
	sectionID, content, err := e.editor.Save()
	if err != nil {
		return nil, err
	}

	resp, err := e.client.SaveSection(ctx, e.projectID, sectionID, render.ToEditableBuffer(content))
	if err != nil {
		return nil, fmt.Errorf("failed to save section %s: %w", sectionID, err)
	}
	return resp, nil
}
