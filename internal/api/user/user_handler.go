package user

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
	"github.com/FACorreiaa/go-recipe-api/internal/api/auth"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	GetUserProfile(w http.ResponseWriter, r *http.Request)
	UpdateUserProfile(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("user.NewHandlerImpl: nil logger")
	}
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

func logUnexpected(l *slog.Logger, r *http.Request, span trace.Span, msg string, err error) {
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		return
	}
	l.ErrorContext(r.Context(), msg, slog.Any("error", err))
	span.RecordError(err)
}

// Register godoc
// @Summary      Register a user
// @Description  Creates an ordinary user. The email is stored lower-cased.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        user body types.RegisterParams true "Registration"
// @Success      201 {object} types.User
// @Failure      400 {object} map[string][]string "Validation errors"
// @Router       /users [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "Register", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/users"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Register"))

	var params types.RegisterParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.DecodeError(w, r, err)
		return
	}

	u, err := h.userService.Register(ctx, params)
	if err != nil {
		logUnexpected(l, r, span, "Failed to register user", err)
		span.SetStatus(codes.Error, "Registration failed")
		api.HandleError(w, r, err, "Failed to register user")
		return
	}

	span.SetStatus(codes.Ok, "User registered")
	api.WriteJSONResponse(w, r, http.StatusCreated, u)
}

// GetUserProfile godoc
// @Summary      Get User Profile
// @Description  Retrieves the authenticated user's profile information.
// @Tags         User
// @Produce      json
// @Success      200 {object} types.User "User Profile"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     TokenAuth
// @Router       /users/me [get]
func (h *HandlerImpl) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "GetUserProfile", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/users/me"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetUserProfile"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthenticated")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	profile, err := h.userService.GetUserProfile(ctx, userID)
	if err != nil {
		logUnexpected(l, r, span, "Failed to get user profile", err)
		span.SetStatus(codes.Error, "Profile lookup failed")
		api.HandleError(w, r, err, "Failed to retrieve user profile")
		return
	}

	span.SetStatus(codes.Ok, "Profile returned")
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateUserProfile godoc
// @Summary      Update User Profile
// @Description  Applies the supplied fields to the authenticated user. A new password is re-hashed.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        profile body types.UpdateProfileParams true "Profile Update Parameters"
// @Success      200 {object} types.User
// @Failure      400 {object} map[string][]string "Validation errors"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     TokenAuth
// @Router       /users/me [patch]
func (h *HandlerImpl) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "UpdateUserProfile", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/users/me"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UpdateUserProfile"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthenticated")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	var params types.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.DecodeError(w, r, err)
		return
	}

	u, err := h.userService.UpdateUserProfile(ctx, userID, params)
	if err != nil {
		logUnexpected(l, r, span, "Failed to update user profile", err)
		span.SetStatus(codes.Error, "Profile update failed")
		api.HandleError(w, r, err, "Failed to update user profile")
		return
	}

	span.SetStatus(codes.Ok, "Profile updated")
	api.WriteJSONResponse(w, r, http.StatusOK, u)
}
