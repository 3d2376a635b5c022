package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/dto"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/logger"
)

const maxBodyBytes = 1 << 20

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready != nil {
		if err := s.cfg.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error(), Code: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /v1/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body dto.SearchRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := body.ToDomain(s.ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.ports.Query.Search(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSearchResponse(resp))
}

// GET /v1/providers/options
func (s *Server) handleProviderOptions(w http.ResponseWriter, r *http.Request) {
	report, err := s.ports.Query.ProviderOptions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromProviderOptions(report))
}

// GET /v1/providers/status?refresh=true
func (s *Server) handleProviderStatus(w http.ResponseWriter, r *http.Request) {
	refresh := false
	if v := r.URL.Query().Get("refresh"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: refresh must be a boolean", domain.ErrInvalidInput))
			return
		}
		refresh = parsed
	}

	report, err := s.ports.Query.ProviderStatus(r.Context(), refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromProviderStatus(report))
}

// GET /v1/sources
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	if s.ports.Source == nil {
		writeJSON(w, http.StatusOK, []dto.Source{})
		return
	}
	sources, err := s.ports.Source.List(r.Context(), s.ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSources(sources))
}

// POST /v1/ingest
func (s *Server) handleQueueIngest(w http.ResponseWriter, r *http.Request) {
	var body dto.IngestRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := body.ToDomain(s.ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := s.ports.Ingest.QueueIngest(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/ingest/jobs/"+receipt.JobID)
	writeJSON(w, http.StatusAccepted, dto.FromIngestReceipt(receipt))
}

// GET /v1/ingest/jobs/{jobID}
func (s *Server) handleGetIngestJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.ports.Ingest.GetIngestJob(r.Context(), s.ownerID(r), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromIngestJob(job))
}

func (s *Server) ownerID(r *http.Request) string {
	if owner := strings.TrimSpace(r.Header.Get(OwnerHeader)); owner != "" {
		return owner
	}
	return s.cfg.DefaultOwnerID
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrInvalidSession):
		return http.StatusNotFound, "invalid_session"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrAllProvidersDown):
		return http.StatusServiceUnavailable, "all_providers_down"
	case errors.Is(err, domain.ErrSearchUnavailable):
		return http.StatusServiceUnavailable, "search_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("writing response", zap.Error(err))
	}
}
