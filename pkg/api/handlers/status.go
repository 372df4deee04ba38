package handlers

import (
	"net/http"

	"github.com/marmos91/fstore/pkg/api/response"
	"github.com/marmos91/fstore/pkg/objectstore"
)

// StatusHandler serves GET /status.
type StatusHandler struct {
	store *objectstore.ObjectStore
}

func NewStatusHandler(store *objectstore.ObjectStore) *StatusHandler {
	return &StatusHandler{store: store}
}

func (h *StatusHandler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.store.GetTotals(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, totals)
}
