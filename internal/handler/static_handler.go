/*
Package handler provides the HTTP handler that serves the presentation bundle.

Files under the static directory are served as-is. Any other GET or HEAD path falls back to
index.html so the client-side router can handle it, except paths under the WebSocket prefix.
*/
package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"dancefloor/internal/pkg/logx"
)

// indexDocument is served for every path that names no file in the bundle.
const indexDocument = "index.html"

// HandleStatic serves files from dir with a fallback to dir/index.html.
// Requests under reservedPrefix are never rewritten and get 404 when unmatched.
func HandleStatic(dir, reservedPrefix string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, indexDocument)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		cleaned := path.Clean("/" + r.URL.Path)

		if cleaned == reservedPrefix || strings.HasPrefix(cleaned, reservedPrefix+"/") {
			http.NotFound(w, r)
			return
		}

		if cleaned != "/" && isFile(filepath.Join(dir, filepath.FromSlash(cleaned))) {
			fileServer.ServeHTTP(w, r)
			return
		}

		if !isFile(index) {
			logx.Warn("Presentation bundle has no index document", "path", index)
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, index)
	}
}

func isFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}
