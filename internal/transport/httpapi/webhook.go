package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"barberbook/backend/internal/service/reconcile"
	"barberbook/backend/internal/webhook"
)

type cancelledJSON struct {
	Outcome     string           `json:"outcome"`
	Appointment *appointmentJSON `json:"appointment,omitempty"`
}

// handleWebhook verifies the signature against the exact bytes received,
// before anything is decoded, then applies the event.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("route", "webhook"))

	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	if !s.deps.Verifier.Verify(raw, r.Header.Get(webhook.SignatureHeader)) {
		log.Warn("webhook_signature_rejected", slog.String("remote_ip", remoteIP(r)))
		writeText(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	ev, err := webhook.ParseEvent(raw)
	if err != nil {
		log.Warn("webhook payload rejected", slog.Any("err", err))
		writeText(w, http.StatusBadRequest, "Malformed event")
		return
	}
	log = log.With(slog.String("event", ev.Kind()))

	res, err := s.deps.Reconciler.Handle(r.Context(), ev)
	if err != nil {
		if errors.Is(err, reconcile.ErrUnknownService) {
			log.Warn("webhook for unknown service", slog.Any("err", err))
			writeText(w, http.StatusBadRequest, "Unknown service for event_type")
			return
		}
		log.Error("webhook processing failed", slog.Any("err", err))
		writeText(w, http.StatusInternalServerError, "Internal error")
		return
	}

	switch res.Outcome {
	case reconcile.OutcomeCreated, reconcile.OutcomeDuplicate:
		writeText(w, http.StatusOK, "ok")
	case reconcile.OutcomeCancelled, reconcile.OutcomeNotModified:
		out := cancelledJSON{Outcome: string(res.Outcome)}
		if res.Appointment != nil {
			a := toAppointmentJSON(*res.Appointment)
			out.Appointment = &a
		}
		writeJSON(w, http.StatusOK, out)
	case reconcile.OutcomeNotFound:
		writeText(w, http.StatusNotFound, "Appointment not found")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
