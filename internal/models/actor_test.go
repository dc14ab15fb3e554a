package models_test

import (
	"testing"

	"docportal-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActorAccess(t *testing.T) {
	owner := uuid.New()
	private := &models.Project{CreatedBy: owner}
	public := &models.Project{CreatedBy: owner, IsPublic: true}

	var guest *models.Actor
	stranger := &models.Actor{UserID: uuid.New(), Role: models.RoleUser}
	admin := &models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	self := &models.Actor{UserID: owner, Role: models.RoleUser}

	assert.False(t, guest.CanRead(private))
	assert.True(t, guest.CanRead(public))
	assert.False(t, guest.CanWrite(public))

	assert.False(t, stranger.CanRead(private))
	assert.True(t, stranger.CanRead(public))
	assert.False(t, stranger.CanWrite(public))

	assert.True(t, admin.CanRead(private))
	assert.True(t, admin.CanWrite(private))

	assert.True(t, self.CanRead(private))
	assert.True(t, self.CanWrite(private))
}

func TestFindFile(t *testing.T) {
	p := &models.Project{Files: []models.ProjectFile{
		{OriginalName: "main.go", Content: "package main"},
		{OriginalName: "README.md", Content: "# readme"},
	}}

	f, ok := p.FindFile("README.md")
	assert.True(t, ok)
	assert.Equal(t, "# readme", f.Content)

	_, ok = p.FindFile("missing.txt")
	assert.False(t, ok)
}
