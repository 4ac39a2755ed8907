package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
)

const (
	contextTokenKey   = "userToken"
	contextProfileKey = "profile"
)

// Claims are the identity claims of a JWT issued by the external auth provider.
// The subject is the Profile ID.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.Auth.JWTSigningKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// NewClaims returns claims the way the auth provider issues them; used by tests and local tooling.
func NewClaims(conf *core.Config, subject, email, name string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.Auth.JWTIssuer,
			Audience:  conf.Auth.JWTAudience,
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		Email: email,
		Name:  name,
	}
}

// GenerateToken signs claims with the shared HS256 key.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.Auth.JWTSigningKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextProfile(ctx echo.Context) (profile.Profile, error) {
	if p, ok := ctx.Get(contextProfileKey).(profile.Profile); ok {
		return p, nil
	}
	return profile.Profile{}, errUnauthorized
}

// identityMiddleware checks the provider claims and loads the caller's Profile, creating it on first sight.
func identityMiddleware(conf *core.Config, svc profile.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Subject == "" {
				return errInvalidToken
			}
			if conf.Auth.JWTIssuer != "" && !claims.VerifyIssuer(conf.Auth.JWTIssuer, true) {
				return errInvalidToken
			}
			if conf.Auth.JWTAudience != "" && !claims.VerifyAudience(conf.Auth.JWTAudience, true) {
				return errInvalidToken
			}

			p, err := svc.Ensure(ctx.Request().Context(), claims.Subject, claims.Email, claims.Name)
			if err != nil {
				return errors.Wrap(err, "ensuring profile")
			}
			ctx.Set(contextProfileKey, p)
			return next(ctx)
		}
	}
}
