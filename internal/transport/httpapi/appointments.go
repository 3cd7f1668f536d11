package httpapi

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	requester := mustPrincipal(r)
	if err := s.deps.Appointments.RequestCancel(r.Context(), requester, id); err != nil {
		writeServiceError(w, s.log.With(
			slog.String("route", "cancel_appointment"),
			slog.String("appointment_id", id.String()),
		), err)
		return
	}
	s.log.Info("cancel requested", slog.String("appointment_id", id.String()), slog.String("principal_id", requester.ID.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClientAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := s.deps.Appointments.ListForClient(r.Context(), mustPrincipal(r), id)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentViewsJSON(list))
}

func (s *Server) handleBarberAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := s.deps.Appointments.ListForBarber(r.Context(), mustPrincipal(r), id)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentViewsJSON(list))
}
