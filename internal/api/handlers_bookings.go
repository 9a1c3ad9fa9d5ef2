package api

import (
	"net/http"

	"ductclean/internal/service"
)

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings.ListBookings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var input service.CreateBookingInput
	if !decodeBody(w, r, &input) {
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), input)
	writeEntity(w, http.StatusCreated, booking, err)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.bookings.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// handlePatchBooking applies either a lifecycle action or a notes
// update, never both in one call.
func (s *Server) handlePatchBooking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action  string  `json:"action"`
		Notes   *string `json:"notes"`
		Version int64   `json:"version"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	id := r.PathValue("id")
	ctx := r.Context()

	switch body.Action {
	case "confirm":
		booking, err := s.bookings.ConfirmBooking(ctx, id, body.Version)
		writeEntity(w, http.StatusOK, booking, err)
	case "complete":
		booking, err := s.bookings.CompleteBooking(ctx, id, body.Version)
		writeEntity(w, http.StatusOK, booking, err)
	case "cancel":
		booking, err := s.bookings.CancelBooking(ctx, id, body.Version)
		writeEntity(w, http.StatusOK, booking, err)
	case "":
		if body.Notes == nil {
			writeError(w, http.StatusBadRequest, "action or notes is required")
			return
		}
		booking, err := s.bookings.UpdateNotes(ctx, id, body.Version, *body.Notes)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	default:
		writeError(w, http.StatusBadRequest, "action must be confirm, complete or cancel")
	}
}

// DELETE cancels; bookings are never removed from history.
func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	version, ok := optionalVersion(w, r)
	if !ok {
		return
	}

	booking, err := s.bookings.CancelBooking(r.Context(), r.PathValue("id"), version)
	writeEntity(w, http.StatusOK, booking, err)
}
