package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/flora-backend/internal/domain/chat"
	"github.com/yungbote/flora-backend/internal/platform/ctxutil"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

var ErrInvalidSessionToken = errors.New("invalid or expired session token")

// SessionClaims is the token minted by the identity provider for a signed-in user.
type SessionClaims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
	SID  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// SessionService verifies session tokens. Sign-up and sign-in live with the
// identity provider; Issue exists for local tooling and tests.
type SessionService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	Issue(userID uuid.UUID, name string, role chat.Role, ttl time.Duration) (string, error)
}

type sessionService struct {
	log    *logger.Logger
	secret []byte
	leeway time.Duration
}

func NewSessionService(log *logger.Logger, secret string) (SessionService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("missing SESSION_JWT_SECRET")
	}
	return &sessionService{
		log:    log.With("service", "SessionService"),
		secret: []byte(secret),
		leeway: 30 * time.Second,
	}, nil
}

func (s *sessionService) Issue(userID uuid.UUID, name string, role chat.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Name: name,
		Role: string(role),
		SID:  uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *sessionService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrInvalidSessionToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	)
	claims := &SessionClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		s.log.Debug("Rejected session token", "error", err)
		return ctx, ErrInvalidSessionToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: bad subject", ErrInvalidSessionToken)
	}
	rd := &ctxutil.RequestData{
		UserID: userID,
		Name:   claims.Name,
		Role:   string(chat.ParseRole(claims.Role)),
	}
	if sid, err := uuid.Parse(claims.SID); err == nil {
		rd.SessionID = sid
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}
