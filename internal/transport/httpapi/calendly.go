package httpapi

import (
	"log/slog"
	"net/http"
	"net/url"
)

type eventTypeJSON struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Slug          string `json:"slug,omitempty"`
	Active        bool   `json:"active"`
	SchedulingURL string `json:"schedulingUrl,omitempty"`
	Duration      int    `json:"duration,omitempty"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Integration.ConnectURL(mustPrincipal(r))
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}

// handleConnectCallback is the OAuth redirect target. The browser is sent on
// to the frontend with the outcome in the query string.
func (s *Server) handleConnectCallback(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("route", "calendly_auth"))
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		log.Warn("provider denied authorization", slog.String("error", providerErr))
		s.redirect(w, r, s.cfg.ConnectErrorURL, providerErr)
		return
	}

	userID, err := s.deps.Integration.CompleteConnect(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		log.Warn("connect failed", slog.Any("err", err))
		s.redirect(w, r, s.cfg.ConnectErrorURL, "connect_failed")
		return
	}
	log.Info("provider connected", slog.String("user_id", userID.String()))
	s.redirect(w, r, s.cfg.ConnectSuccessURL, "")
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target, reason string) {
	if target == "" {
		if reason != "" {
			writeError(w, http.StatusBadRequest, "connect_failed", reason)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
		return
	}
	if reason != "" {
		if u, err := url.Parse(target); err == nil {
			q := u.Query()
			q.Set("reason", reason)
			u.RawQuery = q.Encode()
			target = u.String()
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleEventTypes(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Integration.EventTypes(r.Context(), mustPrincipal(r))
	if err != nil {
		writeServiceError(w, s.log.With(slog.String("route", "event_types")), err)
		return
	}
	out := make([]eventTypeJSON, 0, len(list))
	for _, et := range list {
		out = append(out, eventTypeJSON{
			URI:           et.URI,
			Name:          et.Name,
			Slug:          et.Slug,
			Active:        et.Active,
			SchedulingURL: et.SchedulingURL,
			Duration:      et.Duration,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVerifyConnection(w http.ResponseWriter, r *http.Request) {
	connected := s.deps.Integration.Verify(r.Context(), mustPrincipal(r))
	writeJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}
