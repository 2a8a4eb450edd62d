package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-recipe-api/internal/api"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		authService: authService,
	}
}

// CreateToken godoc
// @Summary      Obtain an API token
// @Description  Exchanges email and password for the user's API token.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        credentials body types.TokenRequest true "Credentials"
// @Success      200 {object} types.TokenResponse
// @Failure      400 {object} map[string][]string "Invalid credentials"
// @Failure      429 {object} types.Response "Too many requests"
// @Router       /users/token [post]
func (h *AuthHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "CreateToken", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/users/token"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "CreateToken"))

	var params types.TokenRequest
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.DecodeError(w, r, err)
		return
	}

	token, err := h.authService.IssueToken(ctx, params)
	if err != nil {
		var verr *types.ValidationError
		if !errors.As(err, &verr) {
			l.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "Token not issued")
		api.HandleError(w, r, err, "Failed to issue token")
		return
	}

	span.SetStatus(codes.Ok, "Token issued")
	api.WriteJSONResponse(w, r, http.StatusOK, types.TokenResponse{Token: token.Key})
}

// Logout godoc
// @Summary      Revoke the API token
// @Description  Deletes the caller's token. The next token request mints a new key.
// @Tags         User
// @Success      204 "Token revoked"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     TokenAuth
// @Router       /users/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Logout", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/users/logout"),
	))
	defer span.End()

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthenticated")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	if err := h.authService.RevokeToken(ctx, userID); err != nil {
		h.logger.ErrorContext(ctx, "Failed to revoke token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Revoke failed")
		api.HandleError(w, r, err, "Failed to revoke token")
		return
	}

	span.SetStatus(codes.Ok, "Token revoked")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
