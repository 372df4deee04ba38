// Package handlers implements the HTTP boundary over pkg/objectstore,
// translating spec.md §6's request/response table into chi handlers.
// Grounded on the teacher's pkg/api/handlers.HealthHandler for the
// constructor-holds-a-store, method-per-route shape, generalized from
// registry.Registry to objectstore.ObjectStore.
package handlers

import (
	"net/http"
	"runtime/debug"

	"github.com/marmos91/fstore/pkg/api/response"
)

// BuildInfo is the version metadata served from GET /. Version is the
// value handed to NewAboutHandler; Commit is the vcs.revision setting from
// runtime/debug.ReadBuildInfo(), falling back to "unknown" when absent.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// AboutHandler serves GET /.
type AboutHandler struct {
	info BuildInfo
}

func NewAboutHandler(version string) *AboutHandler {
	info := BuildInfo{Version: version, Commit: "unknown"}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Commit = s.Value
			}
		}
	}
	return &AboutHandler{info: info}
}

func (h *AboutHandler) About(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{"version": h.info})
}
