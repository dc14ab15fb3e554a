package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal-backend/internal/client"
	"docportal-backend/internal/models"
)

func TestPollStopsWhenDone(t *testing.T) {
	calls := 0
	err := client.Poll(context.Background(), time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollReturnsCheckError(t *testing.T) {
	boom := errors.New("boom")
	err := client.Poll(context.Background(), time.Millisecond, func(context.Context) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestPollHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.Poll(ctx, time.Hour, func(context.Context) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitForCompletion(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/p1/status", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		status := models.StatusResponse{ProjectID: "p1", Status: models.StatusProcessing, Progress: 50}
		if calls.Add(1) >= 3 {
			status.Status, status.Progress = models.StatusCompleted, 100
		}
		_ = json.NewEncoder(w).Encode(status)
	}))
	defer server.Close()

	c := client.New(server.URL+"/api/v1/", client.Session{Token: "tok"})
	status, err := c.WaitForCompletion(context.Background(), "p1", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitForCompletionReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.StatusResponse{Status: models.StatusError, ErrorMessage: "quota"})
	}))
	defer server.Close()

	status, err := client.New(server.URL, client.Session{}).WaitForCompletion(context.Background(), "p1", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, status.Status)
	assert.Equal(t, "quota", status.ErrorMessage)
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "project not found"})
	}))
	defer server.Close()

	_, err := client.New(server.URL, client.Session{}).GetProject(context.Background(), "p1")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "project not found", apiErr.Response.Error)
}

func TestSessionsAreIndependent(t *testing.T) {
	var (
		mu      sync.Mutex
		headers []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get("Authorization"))
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(models.ProjectListResponse{})
	}))
	defer server.Close()

	user := client.New(server.URL, client.Session{Token: "user"})
	admin := user.WithSession(client.Session{Token: "admin", Role: models.RoleAdmin})

	_, err := user.ListProjects(context.Background())
	require.NoError(t, err)
	_, err = admin.ListProjects(context.Background())
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"Bearer user", "Bearer admin"}, headers)
	mu.Unlock()
	assert.False(t, user.Session().IsAdmin())
	assert.True(t, admin.Session().IsAdmin())
}

func TestSectionEditor(t *testing.T) {
	var (
		mu    sync.Mutex
		saved models.SaveSectionRequest
		fail  atomic.Bool
	)
	lastSaved := func() string {
		mu.Lock()
		defer mu.Unlock()
		return saved.Content
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/projects/p1/sections/setup", r.URL.Path)
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "internal server error"})
			return
		}
		var req models.SaveSectionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		saved = req
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(models.SaveSectionResponse{SectionID: "setup", HTML: req.Content})
	}))
	defer server.Close()

	editor := client.New(server.URL, client.Session{Token: "tok"}).NewSectionEditor("p1")
	section := models.SectionResponse{ID: "setup", HTML: "<h2>Setup</h2>\n<p>Run make.</p>"}

	buffer := editor.Open(section)
	assert.Equal(t, "<h2>Setup</h2>\n<p>Run make.</p>", buffer)
	require.NoError(t, editor.Update("<h2>Setup</h2>\n<p>Run make install.</p>"))

	resp, err := editor.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<h2>Setup</h2>\n<p>Run make install.</p>", lastSaved())
	assert.NotContains(t, lastSaved(), models.RichHTMLMarker)
	assert.Equal(t, lastSaved(), resp.HTML)

	// Reopening shows the saved buffer, not the stale markup.
	assert.Equal(t, lastSaved(), editor.Open(section))
	require.NoError(t, editor.Update("<p>draft</p>"))

	fail.Store(true)
	_, err = editor.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, "<p>draft</p>", editor.Open(section))
}
