package http

import (
	"net/http"
	"path"
	"strings"
)

// StaticHandler serves files under root as-is. Dotfiles (.env, .git, ...)
// and directories without an index.html are reported as missing.
func StaticHandler(root string) http.Handler {
	dir := http.Dir(root)
	files := http.FileServer(dir)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, segment := range strings.Split(r.URL.Path, "/") {
			if strings.HasPrefix(segment, ".") {
				http.NotFound(w, r)
				return
			}
		}
		if isBareDirectory(dir, r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func isBareDirectory(dir http.Dir, urlPath string) bool {
	name := path.Clean("/" + urlPath)
	f, err := dir.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.IsDir() {
		return false
	}

	index, err := dir.Open(path.Join(name, "index.html"))
	if err != nil {
		return true
	}
	index.Close()
	return false
}
