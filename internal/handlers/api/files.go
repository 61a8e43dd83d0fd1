package api

import (
	"net/http"
	"strings"
)

// Files serves locally stored documents below prefix. A shop only sees the
// files under its own invoices/<shop>/ directory.
func Files(prefix, dir string) http.Handler {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shop, ok := shopOf(w, r)
		if !ok {
			return
		}
		key := strings.TrimPrefix(r.URL.Path, prefix)
		if !strings.HasPrefix(key, "invoices/"+shop+"/") || strings.Contains(key, "..") {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		fs.ServeHTTP(w, r)
	})
}
