package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fstore/pkg/metadata/memstore"
	"github.com/marmos91/fstore/pkg/objectstore"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := objectstore.New(context.Background(), t.TempDir(), memstore.New(), objectstore.Config{})
	require.NoError(t, err)
	return NewRouter(store, "test")
}

// TestObjectIngestionRoundTrip exercises the full ingestion pipeline over
// HTTP (spec.md §6/§8 scenario 4): create a part, append to it by id,
// commit it into a bucket, then read its metadata, its bytes, and finally
// remove its association — each against the route params chi actually
// populates.
func TestObjectIngestionRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	createReq := httptest.NewRequest(http.MethodPut, "/bucket/photos", nil)
	createRec := httptest.NewRecorder()
	router.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var bucket struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(createRec.Body).Decode(&bucket))

	startReq := httptest.NewRequest(http.MethodPost, "/object", nil)
	startRec := httptest.NewRecorder()
	router.ServeHTTP(startRec, startReq)
	require.Equal(t, http.StatusCreated, startRec.Code)

	var part struct {
		ID      string `json:"id"`
		Written int64  `json:"written"`
	}
	require.NoError(t, json.NewDecoder(startRec.Body).Decode(&part))
	assert.EqualValues(t, 0, part.Written)

	appendReq := httptest.NewRequest(http.MethodPost, "/object/"+part.ID, bytes.NewReader([]byte("HI")))
	appendRec := httptest.NewRecorder()
	router.ServeHTTP(appendRec, appendReq)
	require.Equal(t, http.StatusOK, appendRec.Code, appendRec.Body.String())

	var appended struct {
		Written int64 `json:"written"`
	}
	require.NoError(t, json.NewDecoder(appendRec.Body).Decode(&appended))
	assert.EqualValues(t, 2, appended.Written)

	commitReq := httptest.NewRequest(http.MethodPut, "/object/"+bucket.ID+"/"+part.ID, nil)
	commitRec := httptest.NewRecorder()
	router.ServeHTTP(commitRec, commitReq)
	require.Equal(t, http.StatusOK, commitRec.Code, commitRec.Body.String())

	var obj struct {
		ID   string `json:"id"`
		Hash string `json:"hash"`
		Size int64  `json:"size"`
	}
	require.NoError(t, json.NewDecoder(commitRec.Body).Decode(&obj))
	assert.EqualValues(t, 2, obj.Size)

	metaReq := httptest.NewRequest(http.MethodGet, "/object/"+bucket.ID+"/"+obj.ID, nil)
	metaRec := httptest.NewRecorder()
	router.ServeHTTP(metaRec, metaReq)
	require.Equal(t, http.StatusOK, metaRec.Code, metaRec.Body.String())

	dataReq := httptest.NewRequest(http.MethodGet, "/object/"+bucket.ID+"/"+obj.ID+"/data", nil)
	dataRec := httptest.NewRecorder()
	router.ServeHTTP(dataRec, dataReq)
	require.Equal(t, http.StatusOK, dataRec.Code)
	assert.Equal(t, "HI", dataRec.Body.String())

	removeReq := httptest.NewRequest(http.MethodDelete, "/object/"+bucket.ID+"/"+obj.ID, nil)
	removeRec := httptest.NewRecorder()
	router.ServeHTTP(removeRec, removeReq)
	require.Equal(t, http.StatusOK, removeRec.Code, removeRec.Body.String())
}

// TestConcurrentAppendSecondCallerGetsWriteLock covers spec.md §8's
// "exactly one returns success; the other fails with WriteLock" property.
func TestConcurrentAppendSecondCallerGetsWriteLock(t *testing.T) {
	router := newTestRouter(t)

	startReq := httptest.NewRequest(http.MethodPost, "/object", nil)
	startRec := httptest.NewRecorder()
	router.ServeHTTP(startRec, startReq)
	require.Equal(t, http.StatusCreated, startRec.Code)

	var part struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(startRec.Body).Decode(&part))

	// The first append streams from a pipe, so it is still in flight (and
	// holding the part) when the second append arrives.
	body, bodyWriter := io.Pipe()
	firstReq := httptest.NewRequest(http.MethodPost, "/object/"+part.ID, body)
	firstRec := httptest.NewRecorder()
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		router.ServeHTTP(firstRec, firstReq)
	}()
	_, err := bodyWriter.Write([]byte("a"))
	require.NoError(t, err)

	secondReq := httptest.NewRequest(http.MethodPost, "/object/"+part.ID, bytes.NewReader([]byte("b")))
	secondRec := httptest.NewRecorder()
	router.ServeHTTP(secondRec, secondReq)

	require.NoError(t, bodyWriter.Close())
	<-firstDone

	codes := []int{firstRec.Code, secondRec.Code}
	assert.Contains(t, codes, http.StatusOK)
	assert.Contains(t, codes, http.StatusConflict)
}

// TestGetObjectMetadataMissingReturns404 covers spec.md §6/§8: a missing
// bucket/object association must surface as 404, never the generic 500
// body fstoreerr.KindInternal would otherwise produce.
func TestGetObjectMetadataMissingReturns404(t *testing.T) {
	router := newTestRouter(t)

	createReq := httptest.NewRequest(http.MethodPut, "/bucket/photos", nil)
	createRec := httptest.NewRecorder()
	router.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var bucket struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(createRec.Body).Decode(&bucket))

	missingID := "00000000-0000-0000-0000-000000000000"

	metaReq := httptest.NewRequest(http.MethodGet, "/object/"+bucket.ID+"/"+missingID, nil)
	metaRec := httptest.NewRecorder()
	router.ServeHTTP(metaRec, metaReq)
	assert.Equal(t, http.StatusNotFound, metaRec.Code, metaRec.Body.String())

	dataReq := httptest.NewRequest(http.MethodGet, "/object/"+bucket.ID+"/"+missingID+"/data", nil)
	dataRec := httptest.NewRecorder()
	router.ServeHTTP(dataRec, dataReq)
	assert.Equal(t, http.StatusNotFound, dataRec.Code, dataRec.Body.String())

	removeReq := httptest.NewRequest(http.MethodDelete, "/object/"+bucket.ID+"/"+missingID, nil)
	removeRec := httptest.NewRecorder()
	router.ServeHTTP(removeRec, removeReq)
	assert.Equal(t, http.StatusNotFound, removeRec.Code, removeRec.Body.String())
}
