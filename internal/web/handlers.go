package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/ordersan/internal/core"
	"github.com/JonMunkholm/ordersan/internal/logging"
	"github.com/JonMunkholm/ordersan/internal/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipartMemory is how much of an upload is buffered in memory before
// parts spill to temp files.
const multipartMemory = 32 << 20

// errReportNotFound is returned for run IDs that are unknown or evicted.
var errReportNotFound = errors.New("report not found")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValidate loads the three uploaded tables, validates them and
// returns the report. Nothing is written to disk beyond multipart spill.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.acquire(r.Context()); err != nil {
		if errors.Is(err, errBusy) {
			w.Header().Set("Retry-After", "30")
			s.respondError(w, r, err, http.StatusServiceUnavailable)
		}
		// otherwise the client went away
		return
	}
	defer s.limiter.release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("multipart: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var (
		ds  core.Dataset
		err error
	)
	if ds.Orders, err = loadPart(r, core.OrderSchema); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if ds.Items, err = loadPart(r, core.ItemSchema); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if ds.Products, err = loadPart(r, core.ProductSchema); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	log := logging.FromContext(r.Context())
	_, rep, err := core.NewValidator(log, s.sampleSize).Validate(ds)
	if s.metrics != nil {
		s.metrics.Observe(rep, err)
	}
	s.reports.put(rep)

	if err != nil {
		s.respondRunError(w, r, err, rep)
		return
	}

	w.Header().Set("Location", "/api/report/"+rep.RunID.String())
	s.writeJSON(w, http.StatusOK, rep)
}

// loadPart parses the multipart file named after the schema's table.
func loadPart[R comparable](r *http.Request, schema core.Schema[R]) (*core.Table[R], error) {
	f, _, err := r.FormFile(schema.Name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, fmt.Errorf("%s: %w", schema.Name, core.ErrNoFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: multipart: %w", schema.Name, err)
	}
	defer f.Close()

	return core.LoadTable(f, schema)
}

func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.lookupReport(r)
	if !ok {
		s.respondError(w, r, errReportNotFound, http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.lookupReport(r)
	if !ok {
		s.respondError(w, r, errReportNotFound, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ReportPage(rep).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render report", "error", err)
	}
}

func (s *Server) lookupReport(r *http.Request) (*core.Report, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		return nil, false
	}
	return s.reports.get(id)
}
