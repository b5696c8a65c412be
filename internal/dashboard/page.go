package dashboard

import (
	_ "embed"
	"net/http"
)

//go:embed dashboard.html
var page []byte

// PageHandler serves the single page word explorer
func PageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
