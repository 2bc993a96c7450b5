package panel

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandler_Embedded(t *testing.T) {
	h := Handler("")

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, "<!DOCTYPE html>"},
		{"/app.js", http.StatusOK, "get_state"},
		{"/style.css", http.StatusOK, ".card"},
		{"/settings", http.StatusOK, "<!DOCTYPE html>"},
		{"/missing.js", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, h, tt.path)
			if w.Code != tt.status {
				t.Fatalf("GET %s status = %d, want %d", tt.path, w.Code, tt.status)
			}
			if tt.contains != "" && !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("GET %s body missing %q", tt.path, tt.contains)
			}
			if got := w.Header().Get("Cache-Control"); !strings.Contains(got, "no-cache") {
				t.Errorf("Cache-Control = %q", got)
			}
		})
	}
}

func TestHandler_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(`<!DOCTYPE html><p>local dashboard</p>`), 0o644); err != nil {
		t.Fatal(err)
	}

	h := Handler(dir)
	if w := get(t, h, "/"); !strings.Contains(w.Body.String(), "local dashboard") {
		t.Errorf("GET / = %q, want directory index", w.Body.String())
	}
	if w := get(t, h, "/deep/route"); !strings.Contains(w.Body.String(), "local dashboard") {
		t.Error("fallback did not serve directory index")
	}
}

func TestHandler_MissingDirectoryUsesEmbed(t *testing.T) {
	w := get(t, Handler("/nonexistent/dashboard"), "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Gray Logic Hub") {
		t.Errorf("GET / = %d %q", w.Code, w.Body.String())
	}
}
