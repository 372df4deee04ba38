package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/pkg/api/handlers"
	"github.com/marmos91/fstore/pkg/metrics"
	"github.com/marmos91/fstore/pkg/objectstore"
)

// NewRouter creates and configures the chi router with all middleware and
// routes over store, implementing spec.md §6's HTTP API table in full.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
func NewRouter(store *objectstore.ObjectStore, version string) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	about := handlers.NewAboutHandler(version)
	status := handlers.NewStatusHandler(store)
	buckets := handlers.NewBucketHandler(store)
	objects := handlers.NewObjectHandler(store)
	jobs := handlers.NewJobHandler(store)

	r.Get("/", about.About)
	r.Get("/status", status.Totals)

	r.Get("/buckets", buckets.List)
	// Every /bucket/{ref} route shares one param name: GET/PUT treat ref as
	// a bucket name, DELETE/POST/the :new_name child treat it as a bucket
	// id, per spec.md §6 — chi requires one wildcard name per tree position.
	r.Route("/bucket/{ref}", func(r chi.Router) {
		r.Get("/", buckets.Get)
		r.Put("/", buckets.Create)
		r.Delete("/", buckets.Remove)
		r.Post("/", objects.UploadToBucket)
		r.Put("/{new_name}", buckets.Rename)
		r.Delete("/objects", objects.RemoveAssociations)
	})

	// /object/{ref} shares one param name across the position-1 routes:
	// POST treats ref as a part id, the nested routes treat it as a
	// bucket id — same tree-position constraint as /bucket/{ref} above.
	r.Post("/object", objects.CreatePart)
	r.Get("/object/errors", objects.Errors)
	r.Post("/object/{ref}", objects.AppendPart)
	r.Put("/object/{ref}/{id}", objects.CommitPart)
	r.Get("/object/{ref}/{id}", objects.GetMetadata)
	r.Get("/object/{ref}/{id}/data", objects.GetData)
	r.Delete("/object/{ref}/{id}", objects.RemoveAssociation)
	r.Delete("/objects", objects.Prune)

	r.Post("/check", jobs.Check)
	r.Post("/archive", jobs.Archive)

	return r
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.ObserveHTTPRequest(r.Method, route, strconv.Itoa(ww.Status()), duration.Seconds())
	})
}
