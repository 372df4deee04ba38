package handlers

import (
	"bufio"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marmos91/fstore/pkg/api/response"
	"github.com/marmos91/fstore/pkg/fstoreerr"
	"github.com/marmos91/fstore/pkg/objectstore"
)

// ObjectHandler serves the /object* and /objects routes.
type ObjectHandler struct {
	store *objectstore.ObjectStore
}

func NewObjectHandler(store *objectstore.ObjectStore) *ObjectHandler {
	return &ObjectHandler{store: store}
}

type partResponse struct {
	ID      string `json:"id"`
	Written int64  `json:"written"`
}

// CreatePart handles POST /object: body is streamed into a fresh Part.
func (h *ObjectHandler) CreatePart(w http.ResponseWriter, r *http.Request) {
	part, err := h.store.GetPart(uuid.Nil)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	defer part.Close()

	written, err := part.StreamToFile(r.Body)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, partResponse{ID: part.ID().String(), Written: written})
}

// AppendPart handles POST /object/:id: body is appended to an existing
// Part, returning its new total size.
func (h *ObjectHandler) AppendPart(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		response.WriteBadRequest(w, "malformed part id")
		return
	}

	part, err := h.store.GetPart(id)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	defer part.Close()

	if _, err := part.StreamToFile(r.Body); err != nil {
		response.WriteError(w, err)
		return
	}

	total, err := part.Size()
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, partResponse{ID: part.ID().String(), Written: total})
}

// CommitPart handles PUT /object/:bucket/:part_id: an optional final
// append, then commits the part into the bucket.
func (h *ObjectHandler) CommitPart(w http.ResponseWriter, r *http.Request) {
	bucketID, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		response.WriteBadRequest(w, "malformed bucket id")
		return
	}
	partID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteBadRequest(w, "malformed part id")
		return
	}

	if r.ContentLength != 0 {
		part, err := h.store.GetPart(partID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if _, err := part.StreamToFile(r.Body); err != nil {
			part.Close()
			response.WriteError(w, err)
			return
		}
		if err := part.Close(); err != nil {
			response.WriteError(w, err)
			return
		}
	}

	obj, err := h.store.CommitPart(r.Context(), bucketID, partID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, obj)
}

// UploadToBucket handles POST /bucket/:id: one-shot upload, streamed
// straight into a Part and committed.
func (h *ObjectHandler) UploadToBucket(w http.ResponseWriter, r *http.Request) {
	bucketID, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		response.WriteBadRequest(w, "malformed bucket id")
		return
	}

	part, err := h.store.GetPart(uuid.Nil)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if _, err := part.StreamToFile(r.Body); err != nil {
		part.Close()
		response.WriteError(w, err)
		return
	}
	if err := part.Close(); err != nil {
		response.WriteError(w, err)
		return
	}

	obj, err := h.store.CommitPart(r.Context(), bucketID, part.ID())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, obj)
}

// GetMetadata handles GET /object/:bucket/:id.
func (h *ObjectHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	bucketID, objID, ok := parseBucketAndObjectID(w, r)
	if !ok {
		return
	}

	obj, found, err := h.store.GetObjectMetadata(r.Context(), bucketID, objID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if !found {
		response.WriteError(w, fstoreerr.NotFound("object"))
		return
	}
	response.JSON(w, http.StatusOK, obj)
}

// GetData handles GET /object/:bucket/:id/data.
func (h *ObjectHandler) GetData(w http.ResponseWriter, r *http.Request) {
	bucketID, objID, ok := parseBucketAndObjectID(w, r)
	if !ok {
		return
	}

	obj, found, err := h.store.GetObjectMetadata(r.Context(), bucketID, objID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if !found {
		response.WriteError(w, fstoreerr.NotFound("object"))
		return
	}

	f, err := h.store.GetObject(objID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", obj.MimeType())
	w.Header().Set("Content-Length", fmt.Sprintf("%d", obj.Size))
	w.WriteHeader(http.StatusOK)
	bufio.NewReader(f).WriteTo(w)
}

// RemoveAssociation handles DELETE /object/:bucket/:id.
func (h *ObjectHandler) RemoveAssociation(w http.ResponseWriter, r *http.Request) {
	bucketID, objID, ok := parseBucketAndObjectID(w, r)
	if !ok {
		return
	}

	obj, found, err := h.store.RemoveObject(r.Context(), bucketID, objID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if !found {
		response.WriteError(w, fstoreerr.NotFound("object"))
		return
	}
	response.JSON(w, http.StatusOK, obj)
}

// RemoveAssociations handles DELETE /bucket/:id/objects: body is
// newline-separated UUIDs, text/plain; charset=utf-8 required.
func (h *ObjectHandler) RemoveAssociations(w http.ResponseWriter, r *http.Request) {
	bucketID, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		response.WriteBadRequest(w, "malformed bucket id")
		return
	}

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/plain" || !strings.EqualFold(params["charset"], "utf-8") {
		response.JSON(w, http.StatusUnsupportedMediaType, map[string]string{
			"error": "Content-Type must be text/plain; charset=utf-8",
		})
		return
	}

	var ids []uuid.UUID
	scanner := bufio.NewScanner(r.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := uuid.Parse(line)
		if err != nil {
			response.WriteBadRequest(w, fmt.Sprintf("malformed object id %q", line))
			return
		}
		ids = append(ids, id)
	}

	result, err := h.store.RemoveObjects(r.Context(), bucketID, ids)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// Errors handles GET /object/errors.
func (h *ObjectHandler) Errors(w http.ResponseWriter, r *http.Request) {
	errs, err := h.store.GetObjectErrors(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, errs)
}

// Prune handles DELETE /objects.
func (h *ObjectHandler) Prune(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.Prune(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, removed)
}

func parseBucketAndObjectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	bucketID, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		response.WriteBadRequest(w, "malformed bucket id")
		return uuid.Nil, uuid.Nil, false
	}
	objID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteBadRequest(w, "malformed object id")
		return uuid.Nil, uuid.Nil, false
	}
	return bucketID, objID, true
}
