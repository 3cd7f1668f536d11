// Package httpapi exposes the booking backend over JSON/HTTP: accounts,
// the service catalog, appointment actions, the provider connect flow and
// the provider webhook receiver.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"barberbook/backend/internal/calendly"
	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/service/catalog"
	"barberbook/backend/internal/service/reconcile"
	"barberbook/backend/internal/service/users"
	"barberbook/backend/internal/webhook"
)

type usersService interface {
	Register(ctx context.Context, in users.RegisterInput) (users.Session, error)
	Login(ctx context.Context, email, password string) (users.Session, error)
	Me(ctx context.Context, requester domain.Principal) (domain.User, error)
	UpdateCalendlyLink(ctx context.Context, requester domain.Principal, link string) (domain.User, error)
}

type catalogService interface {
	Create(ctx context.Context, requester domain.Principal, in catalog.ServiceInput) (domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
	Get(ctx context.Context, requester domain.Principal, id uuid.UUID) (domain.Service, error)
	Update(ctx context.Context, requester domain.Principal, id uuid.UUID, in catalog.ServiceInput) (domain.Service, error)
	Delete(ctx context.Context, requester domain.Principal, id uuid.UUID) error
	ListForBarber(ctx context.Context, requester domain.Principal, barberID uuid.UUID) ([]domain.Service, error)
	ListBarbers(ctx context.Context) ([]domain.Barber, error)
	GetBarber(ctx context.Context, id uuid.UUID) (domain.Barber, error)
}

type appointmentsService interface {
	RequestCancel(ctx context.Context, requester domain.Principal, appointmentID uuid.UUID) error
	ListForClient(ctx context.Context, requester domain.Principal, clientID uuid.UUID) ([]domain.AppointmentView, error)
	ListForBarber(ctx context.Context, requester domain.Principal, barberID uuid.UUID) ([]domain.AppointmentView, error)
}

type integrationService interface {
	ConnectURL(requester domain.Principal) (string, error)
	CompleteConnect(ctx context.Context, code, state string) (uuid.UUID, error)
	EventTypes(ctx context.Context, requester domain.Principal) ([]calendly.EventType, error)
	Verify(ctx context.Context, requester domain.Principal) bool
}

type signatureVerifier interface {
	Verify(rawBody []byte, header string) bool
}

type eventHandler interface {
	Handle(ctx context.Context, ev webhook.Event) (reconcile.Result, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind the HTTP surface. Limiter guards the
// account endpoints and WebhookLimiter the provider deliveries; either may be
// nil to disable that limit.
type Deps struct {
	Tokens       tokenParser
	Users        usersService
	Catalog      catalogService
	Appointments appointmentsService
	Integration  integrationService
	Verifier     signatureVerifier
	Reconciler   eventHandler
	Health       pinger
	Limiter      *RateLimiter

	WebhookLimiter *RateLimiter
}

type Config struct {
	RequestTimeout time.Duration
	// Browser destinations after the provider connect round trip.
	ConnectSuccessURL string
	ConnectErrorURL   string
}

type Server struct {
	deps Deps
	cfg  Config
	log  *slog.Logger
}

func NewServer(deps Deps, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		deps: deps,
		cfg:  cfg,
		log:  log.With(slog.String("component", "http")),
	}
}

// Handler returns the routed handler wrapped in timeout and access log
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.HandlerFunc { return requireAuth(s.deps.Tokens, h) }
	limited := s.deps.Limiter.limit

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /users/register", limited(s.handleRegister))
	mux.HandleFunc("POST /users/login", limited(s.handleLogin))
	mux.HandleFunc("GET /users/me", authed(s.handleMe))
	mux.HandleFunc("PUT /users/me/calendly", authed(s.handleUpdateCalendlyLink))

	mux.HandleFunc("POST /services", authed(s.handleCreateService))
	mux.HandleFunc("GET /services", s.handleListServices)
	mux.HandleFunc("GET /services/{id}", authed(s.handleGetService))
	mux.HandleFunc("PUT /services/{id}", authed(s.handleUpdateService))
	mux.HandleFunc("DELETE /services/{id}", authed(s.handleDeleteService))

	mux.HandleFunc("GET /barbers", s.handleListBarbers)
	mux.HandleFunc("GET /barbers/calendlyverify", authed(s.handleVerifyConnection))
	mux.HandleFunc("GET /barbers/{id}", s.handleGetBarber)
	mux.HandleFunc("GET /barbers/{id}/services", authed(s.handleBarberServices))
	mux.HandleFunc("GET /barbers/{id}/appointments", authed(s.handleBarberAppointments))
	mux.HandleFunc("GET /clients/{id}/appointments", authed(s.handleClientAppointments))
	mux.HandleFunc("POST /appointments/{id}/cancel", authed(s.handleCancelAppointment))

	mux.HandleFunc("GET /calendly/connect", authed(s.handleConnect))
	mux.HandleFunc("GET /calendly/auth", s.handleConnectCallback)
	mux.HandleFunc("GET /calendly/event_types", authed(s.handleEventTypes))

	// Provider deliveries arrive in bursts from a few addresses.
	webhookLimited := s.deps.WebhookLimiter.limit
	mux.HandleFunc("POST /webhook", webhookLimited(s.handleWebhook))
	mux.HandleFunc("POST /calendly/webhook", webhookLimited(s.handleWebhook))

	return requestTimeout(s.cfg.RequestTimeout, accessLog(s.log, mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(r.Context()); err != nil {
			s.log.Warn("health check failed", slog.Any("err", err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses the {id} wildcard. On failure a 400 has been written.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// mustPrincipal is only used behind requireAuth.
func mustPrincipal(r *http.Request) domain.Principal {
	p, _ := principalFrom(r.Context())
	return p
}
