// Package token implements the simulated session token: a JWT-shaped
// three-part string whose signature slot holds a constant placeholder.
// Tokens produced here carry no cryptographic protection whatsoever and
// must be treated as advisory identity hints, not proof. Anything
// beyond a demonstration deployment needs the placeholder replaced with
// real signing before these tokens can be trusted.
package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/volunteerhub/volunteerhub/internal/config"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
)

// PlaceholderSignature fills the third token segment. It is a constant,
// not an HMAC.
const PlaceholderSignature = "unsigned"

const refreshTokenType = "refresh"

// Header mirrors a JWT header. Alg is always "none".
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Payload carries the identity claims of an issued token.
type Payload struct {
	jwt.RegisteredClaims
	Email  string     `json:"email"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
	Avatar string     `json:"avatar,omitempty"`
}

// RefreshPayload is the body of a refresh token. Only the expiry is
// ever checked.
type RefreshPayload struct {
	Type      string           `json:"type"`
	ID        string           `json:"id"`
	CreatedAt *jwt.NumericDate `json:"createdAt"`
	ExpiresAt *jwt.NumericDate `json:"expiresAt"`
}

// Service issues and decodes simulated tokens.
type Service struct {
	cfg config.TokenConfig
	log *logger.Logger
}

// NewService creates a token Service.
func NewService(cfg config.TokenConfig, log *logger.Logger) *Service {
	return &Service{
		cfg: cfg,
		log: log.WithComponent("token"),
	}
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}

// Issue encodes an access token for the user with the given lifetime,
// taken literally: a zero lifetime yields a token that expires the
// instant it is issued and never validates. Callers wanting the
// configured default pass AccessTokenTTL().
func (s *Service) Issue(user *model.User, lifetime time.Duration) (string, error) {
	now := time.Now()

	header := Header{Alg: "none", Typ: "JWT"}
	payload := Payload{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.New().String(),
		},
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		Avatar: user.Avatar,
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(payloadJSON) + "." +
		PlaceholderSignature, nil
}

// Decode parses a token and returns its payload. It returns nil for a
// malformed token, undecodable JSON, or a payload whose expiry has
// passed; it never returns an error to the caller.
func (s *Service) Decode(tokenString string) *Payload {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		s.log.Debug().Int("parts", len(parts)).Msg("token does not have three segments")
		return nil
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		s.log.Debug().Err(err).Msg("token payload is not valid base64")
		return nil
	}

	var payload Payload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		s.log.Debug().Err(err).Msg("token payload is not valid JSON")
		return nil
	}

	if payload.ExpiresAt == nil || !time.Now().Before(payload.ExpiresAt.Time) {
		s.log.Debug().Str("subject", payload.Subject).Msg("token is expired")
		return nil
	}

	return &payload
}

// IsValid reports whether the token decodes to a live payload.
func (s *Service) IsValid(tokenString string) bool {
	return s.Decode(tokenString) != nil
}

// IssueRefresh encodes a refresh token valid for the configured refresh
// lifetime (30 days by default).
func (s *Service) IssueRefresh() (string, error) {
	now := time.Now()
	payload := RefreshPayload{
		Type:      refreshTokenType,
		ID:        uuid.New().String(),
		CreatedAt: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// IsRefreshValid checks only the embedded expiry, nothing else.
func (s *Service) IsRefreshValid(tokenString string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tokenString)
	if err != nil {
		return false
	}
	var payload RefreshPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return false
	}
	if payload.Type != refreshTokenType || payload.ExpiresAt == nil {
		return false
	}
	return time.Now().Before(payload.ExpiresAt.Time)
}

// MinutesUntilExpiry returns the whole minutes left on a session,
// floored at zero.
func MinutesUntilExpiry(session *model.Session) int {
	remaining := time.Until(session.ExpiresAt)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Minutes())
}
