package handlers

import (
	"net/http"

	"github.com/marmos91/fstore/pkg/api/response"
	"github.com/marmos91/fstore/pkg/objectstore"
	"github.com/marmos91/fstore/pkg/progress"
)

// JobHandler serves the background-job routes: check and archive each
// start a singleton progress-tracked task (pkg/progress.Task), rejecting a
// concurrent start with a 409 rather than queueing it.
type JobHandler struct {
	store *objectstore.ObjectStore
}

func NewJobHandler(store *objectstore.ObjectStore) *JobHandler {
	return &JobHandler{store: store}
}

type progressResponse struct {
	Completed int64  `json:"completed"`
	Total     int64  `json:"total"`
	Errors    int    `json:"errors"`
	Finished  bool   `json:"finished"`
	Elapsed   string `json:"elapsed"`
}

func toProgressResponse(p *progress.Progress) progressResponse {
	return progressResponse{
		Completed: p.Completed(),
		Total:     p.Total(),
		Errors:    int(p.Errors()),
		Finished:  p.Done(),
		Elapsed:   p.Elapsed().String(),
	}
}

// Check handles POST /check: starts the integrity-check background task.
func (h *JobHandler) Check(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Check(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, toProgressResponse(p))
}

// Archive handles POST /archive: starts the database-dump + archive-sync
// background task.
func (h *JobHandler) Archive(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Archive(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, toProgressResponse(p))
}
