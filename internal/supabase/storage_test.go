package supabase_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal-backend/internal/supabase"
)

func TestProjectPrefix(t *testing.T) {
	user := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	project := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t,
		"users/11111111-1111-1111-1111-111111111111/projects/22222222-2222-2222-2222-222222222222/",
		supabase.ProjectPrefix(user, project))
}

func TestGetPublicURL(t *testing.T) {
	client := supabase.NewStorageClient("https://demo.supabase.co/", "key", "project-files")

	assert.Equal(t,
		"https://demo.supabase.co/storage/v1/object/public/project-files/users/a/b.go",
		client.GetPublicURL("users/a/b.go"))
}

func TestDeleteProjectFilesUsesFullPaths(t *testing.T) {
	var (
		mu      sync.Mutex
		removed []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "/object/list/"):
			_, _ = w.Write([]byte(`[{"name":"abc_main.go"},{"name":"def_README.md"}]`))
		case r.Method == http.MethodDelete:
			body, _ := io.ReadAll(r.Body)
			var req struct {
				Prefixes []string `json:"prefixes"`
			}
			_ = json.Unmarshal(body, &req)
			mu.Lock()
			removed = append(removed, req.Prefixes...)
			mu.Unlock()
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	user, project := uuid.New(), uuid.New()
	client := supabase.NewStorageClient(server.URL, "key", "project-files")

	require.NoError(t, client.DeleteProjectFiles(user, project))

	prefix := supabase.ProjectPrefix(user, project)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{prefix + "abc_main.go", prefix + "def_README.md"}, removed)
}
