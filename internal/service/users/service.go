// Package users handles account registration, login and profile updates.
package users

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"barberbook/backend/internal/auth"
	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLen = 8

type repository interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateCalendlyLink(ctx context.Context, id uuid.UUID, link string) (domain.User, error)
}

type tokenIssuer interface {
	MakeToken(p domain.Principal) (string, error)
}

type Service struct {
	repo   repository
	tokens tokenIssuer
	log    *slog.Logger
}

func NewService(repo repository, tokens tokenIssuer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		log:    log.With(slog.String("component", "users")),
	}
}

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Role         domain.Role
	CalendlyLink string
}

// Session is a signed-in user and their bearer token.
type Session struct {
	User  domain.User
	Token string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Session{}, domain.NewValidationError("name is required")
	}
	email, err := parseEmail(in.Email)
	if err != nil {
		return Session{}, err
	}
	if len(in.Password) < minPasswordLen {
		return Session{}, domain.NewValidationError("password must be at least 8 characters")
	}
	if !in.Role.Valid() {
		return Session{}, domain.NewValidationError("role must be barber or client")
	}
	link := strings.TrimSpace(in.CalendlyLink)
	if link != "" && in.Role != domain.RoleBarber {
		return Session{}, domain.NewValidationError("only barbers have a calendly link")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}

	u, err := s.repo.Create(ctx, domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		CalendlyLink: link,
	})
	if err != nil {
		return Session{}, err
	}

	s.log.Info("user registered", slog.String("user_id", u.ID.String()), slog.String("role", string(u.Role)))
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *Service) Me(ctx context.Context, requester domain.Principal) (domain.User, error) {
	return s.repo.GetByID(ctx, requester.ID)
}

func (s *Service) UpdateCalendlyLink(ctx context.Context, requester domain.Principal, link string) (domain.User, error) {
	if requester.Role != domain.RoleBarber {
		return domain.User{}, domain.ErrForbidden
	}
	link = strings.TrimSpace(link)
	if link == "" {
		return domain.User{}, domain.NewValidationError("calendly link is required")
	}
	return s.repo.UpdateCalendlyLink(ctx, requester.ID, link)
}

func (s *Service) session(u domain.User) (Session, error) {
	tok, err := s.tokens.MakeToken(u.Principal())
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok}, nil
}

func parseEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Address != strings.TrimSpace(raw) {
		return "", domain.NewValidationError("a valid email is required")
	}
	return strings.ToLower(addr.Address), nil
}
