package api

import (
	"net/http"

	"ductclean/internal/service"
)

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	services, err := s.catalog.ListServices(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var input service.CreateServiceInput
	if !decodeBody(w, r, &input) {
		return
	}

	svc, err := s.catalog.CreateService(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, err := s.catalog.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var body struct {
		service.UpdateServiceInput
		Version int64 `json:"version"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	svc, err := s.catalog.UpdateService(r.Context(), r.PathValue("id"), body.Version, body.UpdateServiceInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}
