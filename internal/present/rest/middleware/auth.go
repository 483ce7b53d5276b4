package middleware

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/imobcrm/erpsync/internal/present/rest/presenter"
)

var tracer = otel.Tracer("auth")

// TokenAuth guards the operations API with one shared bearer token.
type TokenAuth struct {
	token string
}

func NewTokenAuth(token string) *TokenAuth {
	return &TokenAuth{token: token}
}

// Require rejects requests without the configured token. An empty token
// disables the check.
func (a *TokenAuth) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.token == "" {
			return next(c)
		}

		_, span := tracer.Start(c.Request().Context(), "Auth.Middleware.Require")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")
		authType, token, ok := strings.Cut(authHeader, " ")
		if !ok || authType != "Bearer" {
			span.RecordError(fmt.Errorf("only Bearer is acceptable"))
			return presenter.Unauthorized(c)
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			span.RecordError(fmt.Errorf("token mismatch"))
			return presenter.Unauthorized(c)
		}
		return next(c)
	}
}
