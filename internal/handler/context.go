package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"swiftpolicy/internal/auth"
	"swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
)

// ClaimsContextKey is where the JWT middleware stores *auth.Claims.
const ClaimsContextKey = "user"

// ClaimsFrom returns the session claims of an authenticated request.
func ClaimsFrom(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(ClaimsContextKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "missing or invalid session token",
			Code:  "UNAUTHORIZED",
		})
	}
	return claims, nil
}

// actorFrom builds the audited actor from the session claims and client IP.
func actorFrom(c echo.Context) (model.Actor, error) {
	claims, err := ClaimsFrom(c)
	if err != nil {
		return model.Actor{}, err
	}
	actor := claims.Actor()
	actor.IP = c.RealIP()
	return actor, nil
}

// bindAndValidate decodes the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}
	return nil
}

func mapError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
