package api

import (
	"net/http"

	"ductclean/internal/service"
)

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.customers.ListCustomers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var input service.CreateCustomerInput
	if !decodeBody(w, r, &input) {
		return
	}

	customer, err := s.customers.CreateCustomer(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := s.customers.GetCustomer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		service.UpdateCustomerInput
		Version int64 `json:"version"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	customer, err := s.customers.UpdateCustomer(r.Context(), r.PathValue("id"), body.Version, body.UpdateCustomerInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}
