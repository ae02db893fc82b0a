package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const indexFile = "index.html"

// serveStatic serves the built front end from STATIC_DIR. Unknown non-API
// paths fall back to index.html so client-side routes survive a reload.
func (s *Server) serveStatic(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || s.config.StaticDir == "" ||
		(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "NOT_FOUND"})
		return
	}

	root := s.config.StaticDir
	clean := path.Clean("/" + c.Request.URL.Path)
	candidate := filepath.Join(root, filepath.FromSlash(clean))

	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		c.File(candidate)
		return
	}
	c.File(filepath.Join(root, indexFile))
}
