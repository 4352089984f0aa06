package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/telepoint/emi-portal/internal/core"
)

// lookupBodyLimit caps the customer login body.
const lookupBodyLimit = 4 << 10

type lookupRequest struct {
	Aadhaar string `json:"aadhaar"`
	Mobile  string `json:"mobile"`
}

// handleLookup is the customer portal login. An unreadable body is treated
// as one with no identifiers; an oversized one is rejected.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := decodeJSON(w, r, lookupBodyLimit, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, err)
			return
		}
	}

	result, err := s.service.LookupCustomer(r.Context(), req.Aadhaar, req.Mobile)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	customers, err := s.service.SearchCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"customers": customers})
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	emis, err := s.service.UpcomingEMIs(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"emis": emis})
}

// handleDueBreakdown relays the database's breakdown JSON unchanged.
func (s *Server) handleDueBreakdown(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "customerID")
	id, err := uuid.Parse(raw)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("customer id %q: %w", raw, core.ErrUnknownCustomer))
		return
	}

	breakdown, err := s.service.DueBreakdown(r.Context(), id.String())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"breakdown": breakdown})
}
