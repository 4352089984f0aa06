package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/telepoint/emi-portal/internal/core"
)

// importRequest is the JSON import body.
type importRequest struct {
	Rows []core.ImportRow `json:"rows"`
}

// handleImportJSON reconciles rows posted as {"rows":[...]}.
// A body that is not that shape is treated as an empty batch.
func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(w, r, s.cfg.Import.MaxFileSize, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, err)
			return
		}
		s.respondError(w, r, fmt.Errorf("decode import body (%v): %w", err, core.ErrNoRows))
		return
	}

	s.runImport(w, r, req.Rows)
}

// handleImportFile reconciles rows from an uploaded .csv or .xlsx "file" field.
func (s *Server) handleImportFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, err)
			return
		}
		s.respondError(w, r, fmt.Errorf("parse upload: %v: %w", err, errNoFile))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer file.Close()

	rows, err := core.ParseImportFile(header.Filename, file)
	if err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}

	s.runImport(w, r, rows)
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, rows []core.ImportRow) {
	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.ImportCustomers(ctx, rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// handleGetImport returns a stored import report.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.GetImportReport(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// handleImportStatus reports import slot usage.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Limiter().Status())
}
