// Package handlers provides HTTP handlers for import operations: uploading
// broker exports and fetching processed results in JSON or CSV form.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/edgekit/edgekit/internal/domain"
	"github.com/edgekit/edgekit/internal/modules/exports"
	"github.com/edgekit/edgekit/internal/modules/imports"
	"github.com/edgekit/edgekit/internal/modules/reports"
	"github.com/edgekit/edgekit/internal/resultcache"
)

// Handler handles import HTTP requests
type Handler struct {
	dispatcher *imports.Dispatcher
	cache      *resultcache.Cache
	maxUpload  int64
	log        zerolog.Logger
}

// NewHandler creates a new imports handler
func NewHandler(dispatcher *imports.Dispatcher, cache *resultcache.Cache, maxUpload int64, log zerolog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		cache:      cache,
		maxUpload:  maxUpload,
		log:        log.With().Str("handler", "imports").Logger(),
	}
}

// importResponse wraps a processed result with cache provenance.
type importResponse struct {
	Data   *imports.ImportResult `json:"data"`
	Cached bool                  `json:"cached"`
}

// HandleCreateImport handles POST /api/imports.
// Multipart form: "file" (the export) and "broker" (the format tag).
func (h *Handler) HandleCreateImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		http.Error(w, "invalid multipart upload", http.StatusBadRequest)
		return
	}

	// Validate the broker tag before touching the file at all: unsupported
	// tags are a hard stop, not a partial processing attempt.
	broker, err := domain.ParseBroker(r.FormValue("broker"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		http.Error(w, "failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	key := resultcache.Key(broker, raw)
	if res, ok := h.cache.GetByKey(key); ok {
		h.log.Debug().Str("import_id", res.ID).Msg("Serving cached import result")
		h.writeJSON(w, http.StatusOK, importResponse{Data: res, Cached: true})
		return
	}

	res, err := h.dispatcher.Process(broker, bytes.NewReader(raw))
	if err != nil {
		h.writeProcessError(w, err)
		return
	}

	if err := h.cache.Store(key, res); err != nil {
		// Caching is an optimization; a failure must not fail the upload.
		h.log.Warn().Err(err).Str("import_id", res.ID).Msg("Failed to cache import result")
	}

	h.writeJSON(w, http.StatusCreated, importResponse{Data: res, Cached: false})
}

// HandleGetImport handles GET /api/imports/{id}
func (h *Handler) HandleGetImport(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, importResponse{Data: res, Cached: true})
}

// HandleGetSummary handles GET /api/imports/{id}/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": reports.Build(res.Trades),
	})
}

// HandleExportCSV handles GET /api/imports/{id}/export, serializing the
// canonical table back to a delimited UTF-8 stream.
func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, err := exports.MarshalTrades(res.Trades)
	if err != nil {
		h.log.Error().Err(err).Str("import_id", res.ID).Msg("Failed to serialize trade table")
		http.Error(w, "failed to serialize trade table", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "edgekit_"+res.ID+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*imports.ImportResult, bool) {
	id := chi.URLParam(r, "id")
	res, ok := h.cache.GetByID(id)
	if !ok {
		http.Error(w, "import not found or expired", http.StatusNotFound)
		return nil, false
	}
	return res, true
}

// writeProcessError maps the pipeline's error taxonomy onto HTTP statuses.
// Batch-fatal input problems are client errors; an empty surviving table is
// unprocessable rather than silently accepted.
func (h *Handler) writeProcessError(w http.ResponseWriter, err error) {
	var (
		unsupported *domain.UnsupportedBrokerError
		schema      *domain.SchemaError
		empty       *domain.EmptyResultError
	)

	switch {
	case errors.As(err, &unsupported), errors.As(err, &schema):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &empty):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg("Import processing failed")
		http.Error(w, "import processing failed", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
