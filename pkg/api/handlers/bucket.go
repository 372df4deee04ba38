package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marmos91/fstore/pkg/api/response"
	"github.com/marmos91/fstore/pkg/objectstore"
)

// BucketHandler serves the /bucket* and /buckets routes.
type BucketHandler struct {
	store *objectstore.ObjectStore
}

func NewBucketHandler(store *objectstore.ObjectStore) *BucketHandler {
	return &BucketHandler{store: store}
}

// List handles GET /buckets.
func (h *BucketHandler) List(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.store.GetBuckets(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, buckets)
}

// Get handles GET /bucket/:name.
func (h *BucketHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "ref")
	bucket, err := h.store.GetBucket(r.Context(), name)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, bucket)
}

// Create handles PUT /bucket/:name — create or return the existing bucket.
func (h *BucketHandler) Create(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "ref")

	if existing, err := h.store.GetBucket(r.Context(), name); err == nil {
		response.JSON(w, http.StatusOK, existing)
		return
	}

	bucket, err := h.store.AddBucket(r.Context(), name)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, bucket)
}

// Remove handles DELETE /bucket/:id.
func (h *BucketHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		response.WriteBadRequest(w, "malformed bucket id")
		return
	}

	if err := h.store.RemoveBucket(r.Context(), id); err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteNoContent(w)
}

// Rename handles PUT /bucket/:id/:new_name.
func (h *BucketHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		response.WriteBadRequest(w, "malformed bucket id")
		return
	}

	newName := chi.URLParam(r, "new_name")
	if _, err := h.store.RenameBucket(r.Context(), id, newName); err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteNoContent(w)
}
