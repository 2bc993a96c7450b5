package panel

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

//go:embed web/*
var embedded embed.FS

// assets picks dir when it is a readable directory and the embedded copy
// otherwise.
func assets(dir string) fs.FS {
	if dir != "" {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return os.DirFS(dir)
		}
	}
	sub, err := fs.Sub(embedded, "web")
	if err != nil {
		// web/ is compiled in; this only fails on a broken build.
		panic("panel: embedded assets missing: " + err.Error())
	}
	return sub
}

// Handler serves the dashboard from dir, or from the embedded copy when
// dir is empty or unusable. Unknown extension-less paths get index.html so
// client-side routes survive a reload; unknown assets are 404.
func Handler(dir string) http.Handler {
	root := assets(dir)
	files := http.FileServer(http.FS(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || exists(root, name) {
			files.ServeHTTP(w, r)
			return
		}
		if path.Ext(name) != "" {
			http.NotFound(w, r)
			return
		}

		index := r.Clone(r.Context())
		index.URL.Path = "/"
		files.ServeHTTP(w, index)
	})
}

func exists(root fs.FS, name string) bool {
	_, err := fs.Stat(root, name)
	return err == nil
}
