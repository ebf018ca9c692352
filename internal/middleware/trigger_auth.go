package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"google.golang.org/api/idtoken"
)

// TokenValidator checks a Google-signed OIDC token for the given audience.
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// TriggerAuthMiddleware rejects event deliveries that do not carry a Google
// OIDC token minted for audience. The event push subscription signs every
// request with its service account.
func TriggerAuthMiddleware(audience string, validate TokenValidator) echo.MiddlewareFunc {
	if validate == nil {
		validate = idtoken.Validate
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			payload, err := validate(c.Request().Context(), tokenParts[1], audience)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("Invalid event token: %v", err))
			}

			if email, ok := payload.Claims["email"].(string); ok {
				c.Set("triggerCaller", email)
			}
			return next(c)
		}
	}
}
