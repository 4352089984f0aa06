package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/telepoint/emi-portal/internal/core"
	"github.com/telepoint/emi-portal/internal/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExport downloads the caller's customers as an xlsx workbook. The
// workbook is built in memory so a failure still gets a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := core.ParseExportKind(r.URL.Query().Get("type"))

	sheets, err := s.service.ExportCustomers(r.Context(), kind)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := core.WriteExportWorkbook(&buf, sheets); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kind.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "error", err)
	}
}

func (s *Server) handlePaymentRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.service.RecentPaymentRequests(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"requests": reqs})
}
