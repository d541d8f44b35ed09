package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressTracker_BrowserStyleEvents(t *testing.T) {
	var got []int
	tracker := newProgressTracker(func(p int) { got = append(got, p) })

	tracker.Observe(1000, 4000)
	tracker.Observe(4000, 4000)
	tracker.Finish()

	assert.Equal(t, []int{25, 100}, got)
}

func TestProgressTracker_NonDecreasing(t *testing.T) {
	var got []int
	tracker := newProgressTracker(func(p int) { got = append(got, p) })

	for _, loaded := range []int64{0, 10, 10, 5, 333, 999, 1000} {
		tracker.Observe(loaded, 1000)
	}
	tracker.Finish()

	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1], "progress must not decrease: %v", got)
	}
	assert.Equal(t, 100, got[len(got)-1])
}

func TestProgressTracker_IgnoresUnknownTotal(t *testing.T) {
	calls := 0
	tracker := newProgressTracker(func(int) { calls++ })
	tracker.Observe(100, 0)
	assert.Equal(t, 0, calls)

	tracker.Finish()
	assert.Equal(t, 1, calls)
}

func TestClient_Upload(t *testing.T) {
	type received struct {
		fields map[string]string
		files  map[string]string
	}
	got := received{fields: map[string]string{}, files: map[string]string{}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for k, v := range r.MultipartForm.Value {
			got.fields[k] = v[0]
		}
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			require.NoError(t, err)
			b, _ := io.ReadAll(f)
			_ = f.Close()
			got.files[fh.Filename] = string(b)
		}
		_, _ = w.Write([]byte(`{"testcase_id": "tc-1"}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "frd.md")
	require.NoError(t, os.WriteFile(path, []byte("# Requirements"), 0600))

	fromPath, closer, err := FileFromPath("files", path)
	require.NoError(t, err)
	defer closer.Close()

	var progress []int
	var out struct {
		TestcaseID string `json:"testcase_id"`
	}
	err = New(server.URL, nil).Upload(context.Background(), "/generate-test-cases",
		map[string]string{"project_id": "proj-42", "test_type": "unit"},
		[]FormFile{fromPath, {Field: "files", Name: "stories.txt", Content: strings.NewReader("As a user")}},
		func(p int) { progress = append(progress, p) },
		&out,
	)
	require.NoError(t, err)

	assert.Equal(t, "tc-1", out.TestcaseID)
	assert.Equal(t, map[string]string{"project_id": "proj-42", "test_type": "unit"}, got.fields)
	assert.Equal(t, map[string]string{"frd.md": "# Requirements", "stories.txt": "As a user"}, got.files)

	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1])
	}
}

func TestClient_UploadFailureDoesNotFinish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`{"detail": "File too large"}`))
	}))
	defer server.Close()

	err := New(server.URL, nil).Upload(context.Background(), "/generate_smoke_tests", nil,
		[]FormFile{{Field: "file", Name: "big.json", Content: strings.NewReader("{}")}}, nil, nil)

	require.Error(t, err)
	assert.Equal(t, "File too large", err.Error())
}

func TestFileFromPath_Missing(t *testing.T) {
	_, _, err := FileFromPath("files", filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
