package api

import (
	"net/http"

	"ductclean/internal/service"
)

func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.quotes.ListQuotes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
}

func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var input service.CreateQuoteInput
	if !decodeBody(w, r, &input) {
		return
	}

	quote, err := s.quotes.CreateQuote(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quote)
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.quotes.GetQuote(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleSendQuote(w http.ResponseWriter, r *http.Request) {
	version, ok := optionalVersion(w, r)
	if !ok {
		return
	}

	quote, err := s.quotes.SendQuote(r.Context(), r.PathValue("id"), version)
	writeEntity(w, http.StatusOK, quote, err)
}

func (s *Server) handleRespondToQuote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Response string `json:"response"`
		Version  int64  `json:"version"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	var accepted bool
	switch body.Response {
	case "accepted":
		accepted = true
	case "declined":
		accepted = false
	default:
		writeError(w, http.StatusBadRequest, "response must be accepted or declined")
		return
	}

	quote, err := s.quotes.RespondToQuote(r.Context(), r.PathValue("id"), body.Version, accepted)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// optionalVersion reads the optional {"version": N} body of transition
// endpoints. An absent body means "use the current version".
func optionalVersion(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if r.Body == nil || r.ContentLength == 0 {
		return 0, true
	}
	var body struct {
		Version int64 `json:"version"`
	}
	if !decodeBody(w, r, &body) {
		return 0, false
	}
	return body.Version, true
}
