package api

import (
	"fmt"
	"net/http"
	"time"

	"ductclean/internal/domain"
	"ductclean/internal/models"
)

func (s *Server) handleNotifyEmail(w http.ResponseWriter, r *http.Request) {
	var msg domain.EmailMessage
	if !decodeBody(w, r, &msg) {
		return
	}
	if msg.To == "" {
		writeError(w, http.StatusBadRequest, "to is required")
		return
	}

	if err := s.notifier.Enqueue(r.Context(), models.NotifyEmail, "manual", msg); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue email")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleNotifySMS(w http.ResponseWriter, r *http.Request) {
	var msg domain.SMSMessage
	if !decodeBody(w, r, &msg) {
		return
	}
	if msg.To == "" {
		writeError(w, http.StatusBadRequest, "to is required")
		return
	}

	if err := s.notifier.Enqueue(r.Context(), models.NotifySMS, "manual", msg); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue sms")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "to must not precede from")
		return
	}

	data, err := s.exporter.BookingsToBytes(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := fmt.Sprintf("bookings_%s_to_%s.xlsx", from, to)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
