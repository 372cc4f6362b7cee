package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/users"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

type identityClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Verifier signs and verifies HS256 session tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the shared secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Sign issues a token for identity valid for ttl.
func (v *Verifier) Sign(identity users.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, identityClaims{
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}

// Verify parses raw and returns the identity it carries.
func (v *Verifier) Verify(raw string) (users.Identity, error) {
	parsed, err := jwt.ParseWithClaims(raw, &identityClaims{}, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return users.Identity{}, err
	}
	claims, ok := parsed.Claims.(*identityClaims)
	if !ok || !parsed.Valid {
		return users.Identity{}, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return users.Identity{}, errors.New("token has no subject")
	}
	return users.Identity{ID: claims.Subject, Email: claims.Email, Name: claims.Name, Picture: claims.Picture}, nil
}

// UserEnsurer upserts the caller on first sight.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, id users.Identity) (*models.User, error)
}

// Authenticator verifies the bearer token of every request and stores the
// caller in the request context. Browsers cannot set headers on a WebSocket
// upgrade, so an access_token query parameter is accepted as well.
func Authenticator(verifier *Verifier, ensurer UserEnsurer, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				respond.Error(w, logger, apperrors.New(apperrors.ErrUnauthorized, "missing bearer token"))
				return
			}
			identity, err := verifier.Verify(raw)
			if err != nil {
				logger.Debug("rejected token", "error", err)
				respond.Error(w, logger, apperrors.New(apperrors.ErrUnauthorized, "invalid or expired token"))
				return
			}
			user, err := ensurer.EnsureUser(r.Context(), identity)
			if err != nil {
				respond.Error(w, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		}
		return http.HandlerFunc(fn)
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFrom returns the authenticated user, or nil.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(contextKey{}).(*models.User)
	return user
}

// UserID returns the authenticated user's ID, or "".
func UserID(ctx context.Context) string {
	if user := UserFrom(ctx); user != nil {
		return user.ID
	}
	return ""
}
