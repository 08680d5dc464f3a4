package router

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"swiftpolicy/internal/auth"
	"swiftpolicy/internal/errors"
	"swiftpolicy/internal/handler"
	"swiftpolicy/internal/logger"
	"swiftpolicy/internal/model"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Policy *handler.PolicyHandler
	Quotes *handler.QuoteHandler
	Admin  *handler.AdminHandler
}

// AccountGuard re-checks the stored account behind a verified token.
type AccountGuard interface {
	Authorize(ctx context.Context, claims *auth.Claims) error
}

// Options carries the router's collaborators.
type Options struct {
	JWT        *auth.JWTService
	TokenStore auth.TokenStoreInterface
	Log        *zap.Logger
	// Accounts rejects tokens whose account was blocked or disabled after
	// issue. Nil skips the check.
	Accounts AccountGuard
	// Gatherer serves /metrics. Nil uses the default gatherer.
	Gatherer prometheus.Gatherer
}

// Register wires routes and middleware.
func Register(e *echo.Echo, opts Options, h Handlers) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	e.Use(middleware.RequestID())
	e.Use(logger.RequestLogger(log.Named("http")))
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/signup", h.Auth.Signup)
	api.POST("/quotes", h.Quotes.Quote)
	api.GET("/vehicles/vin/:vin", h.Quotes.LookupVIN)
	api.GET("/vehicles/:vrm", h.Quotes.LookupVehicle)

	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		ContextKey:     handler.ClaimsContextKey,
		TokenLookup:    "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: parseToken(opts.JWT, opts.TokenStore),
	}))

	secured.GET("/me", h.Auth.Session)

	// Logout stays open to restricted accounts so they can drop their token.
	secured.POST("/auth/logout", h.Auth.Logout, requireSlot(model.SessionSlotCustomer))
	secured.POST("/admin/logout", h.Auth.LogoutAdmin, requireAdmin)

	// Customer portal
	customer := secured.Group("", requireSlot(model.SessionSlotCustomer), requireAccount(opts.Accounts))
	customer.GET("/policies", h.Policy.MyPolicies)
	customer.POST("/policies", h.Policy.Purchase)

	// Executive terminal
	admin := secured.Group("/admin", requireAdmin, requireAccount(opts.Accounts))

	admin.GET("/users", h.Users.ListUsers)
	admin.GET("/users/:id", h.Users.GetUser)
	admin.PUT("/users/:id/status", h.Users.UpdateStatus)
	admin.POST("/users/:id/activate", h.Users.ActivateProfile)
	admin.POST("/users/:id/disable", h.Users.DisableProfile)
	admin.PUT("/users/:id/kyc", h.Users.UpdateKYC)
	admin.PUT("/users/:id/risk", h.Users.UpdateRisk)
	admin.PUT("/users/:id/notes", h.Users.UpdateNotes)

	admin.GET("/policies", h.Policy.List)
	admin.POST("/policies", h.Policy.Bind)
	admin.GET("/policies/:id", h.Policy.Get)
	admin.PUT("/policies/:id/status", h.Policy.UpdateStatus)
	admin.PUT("/policies/:id/notes", h.Policy.UpdateNotes)
	admin.PUT("/policies/:id/renewal", h.Policy.UpdateRenewal)
	admin.DELETE("/policies/:id", h.Policy.Remove)

	admin.GET("/diagnostics", h.Admin.Diagnostics)
	admin.GET("/mid", h.Admin.MIDSubmissions)
	admin.POST("/mid/:id/retry", h.Admin.RetryMIDSubmission)
	admin.GET("/risk-config", h.Admin.GetRiskConfig)
	admin.PUT("/risk-config", h.Admin.UpdateRiskConfig)
	admin.GET("/audit-logs", h.Admin.AuditLogs)
	admin.GET("/activity-logs", h.Admin.ActivityLogs)
	admin.GET("/vehicle-logs", h.Quotes.VehicleLogs)
}

// parseToken validates the signature and rejects revoked session tokens.
func parseToken(jwtService *auth.JWTService, tokens auth.TokenStoreInterface) func(c echo.Context, token string) (interface{}, error) {
	return func(c echo.Context, token string) (interface{}, error) {
		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		if tokens != nil {
			revoked, err := tokens.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return nil, err
			}
			if revoked {
				return nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "session token has been revoked",
					Code:  "TOKEN_REVOKED",
				})
			}
		}
		return claims, nil
	}
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := handler.ClaimsFrom(c)
		if err != nil {
			return err
		}
		if !claims.IsAdmin() {
			httpErr := errors.MapErrorToHTTP(errors.ErrForbidden)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return next(c)
	}
}

func requireAccount(accounts AccountGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if accounts == nil {
			return next
		}
		return func(c echo.Context) error {
			claims, err := handler.ClaimsFrom(c)
			if err != nil {
				return err
			}
			if err := accounts.Authorize(c.Request().Context(), claims); err != nil {
				httpErr := errors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}

func requireSlot(slot model.SessionSlot) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := handler.ClaimsFrom(c)
			if err != nil {
				return err
			}
			if claims.Slot != slot {
				return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
					Error: "token was not issued for the " + string(slot) + " portal",
					Code:  "WRONG_SESSION_SLOT",
				})
			}
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
