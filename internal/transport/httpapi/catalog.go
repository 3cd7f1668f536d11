package httpapi

import (
	"net/http"

	"barberbook/backend/internal/service/catalog"
)

type serviceRequest struct {
	Name              string `json:"name"`
	PriceCents        int64  `json:"priceCents"`
	CalendlyEventType string `json:"calendlyEventType"`
	CalendlyEventURI  string `json:"calendlyEventUri"`
}

func (req serviceRequest) input() catalog.ServiceInput {
	return catalog.ServiceInput{
		Name:         req.Name,
		PriceCents:   req.PriceCents,
		EventType:    req.CalendlyEventType,
		EventTypeURI: req.CalendlyEventURI,
	}
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	svc, err := s.deps.Catalog.Create(r.Context(), mustPrincipal(r), req.input())
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toServiceJSON(svc))
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Catalog.List(r.Context())
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toServicesJSON(list))
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	svc, err := s.deps.Catalog.Get(r.Context(), mustPrincipal(r), id)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toServiceJSON(svc))
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req serviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	svc, err := s.deps.Catalog.Update(r.Context(), mustPrincipal(r), id, req.input())
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toServiceJSON(svc))
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Catalog.Delete(r.Context(), mustPrincipal(r), id); err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBarbers(w http.ResponseWriter, r *http.Request) {
	barbers, err := s.deps.Catalog.ListBarbers(r.Context())
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	out := make([]barberJSON, 0, len(barbers))
	for _, b := range barbers {
		out = append(out, toBarberJSON(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBarber(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := s.deps.Catalog.GetBarber(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toBarberJSON(b))
}

func (s *Server) handleBarberServices(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := s.deps.Catalog.ListForBarber(r.Context(), mustPrincipal(r), id)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toServicesJSON(list))
}
