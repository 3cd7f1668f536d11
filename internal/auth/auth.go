package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"barberbook/backend/internal/domain"
)

var ErrBadToken = errors.New("invalid token")

const (
	sessionAudience = "barberbook-api"
	stateAudience   = "calendly-connect"

	DefaultSessionTTL = 24 * time.Hour
	stateTTL          = 10 * time.Minute
)

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and checks HS256 tokens: session tokens for API callers and
// short-lived state tokens for the provider connect redirect.
type Issuer struct {
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, sessionTTL time.Duration) *Issuer {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Issuer{secret: []byte(secret), sessionTTL: sessionTTL, now: time.Now}
}

func (i *Issuer) MakeToken(p domain.Principal) (string, error) {
	return i.sign(p.ID, string(p.Role), sessionAudience, i.sessionTTL)
}

func (i *Issuer) ParseToken(raw string) (domain.Principal, error) {
	c, err := i.parse(raw, sessionAudience)
	if err != nil {
		return domain.Principal{}, err
	}
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return domain.Principal{}, ErrBadToken
	}
	role := domain.Role(c.Role)
	if !role.Valid() {
		return domain.Principal{}, ErrBadToken
	}
	return domain.Principal{ID: id, Role: role}, nil
}

// MakeState binds the connect flow to userID so the callback cannot be
// replayed for another account.
func (i *Issuer) MakeState(userID uuid.UUID) (string, error) {
	return i.sign(userID, "", stateAudience, stateTTL)
}

func (i *Issuer) ParseState(raw string) (uuid.UUID, error) {
	c, err := i.parse(raw, stateAudience)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, ErrBadToken
	}
	return id, nil
}

func (i *Issuer) sign(userID uuid.UUID, role, audience string, ttl time.Duration) (string, error) {
	now := i.now()
	c := Claims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

func (i *Issuer) parse(raw, audience string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return i.secret, nil
	}, jwt.WithAudience(audience), jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrBadToken
	}
	return c, nil
}
