package httpapi

import (
	"log/slog"
	"net/http"

	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/service/users"
)

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	CalendlyLink string `json:"calendlyLink"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type calendlyLinkRequest struct {
	CalendlyLink string `json:"calendlyLink"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.deps.Users.Register(r.Context(), users.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         domain.Role(req.Role),
		CalendlyLink: req.CalendlyLink,
	})
	if err != nil {
		writeServiceError(w, s.log.With(slog.String("route", "register")), err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionJSON{Token: sess.Token, User: toUserJSON(sess.User)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.deps.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, s.log.With(slog.String("route", "login")), err)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON{Token: sess.Token, User: toUserJSON(sess.User)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Users.Me(r.Context(), mustPrincipal(r))
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(u))
}

func (s *Server) handleUpdateCalendlyLink(w http.ResponseWriter, r *http.Request) {
	var req calendlyLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.deps.Users.UpdateCalendlyLink(r.Context(), mustPrincipal(r), req.CalendlyLink)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(u))
}
