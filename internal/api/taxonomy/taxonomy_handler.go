package taxonomy

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-recipe-api/internal/api"
	"github.com/FACorreiaa/go-recipe-api/internal/api/auth"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

// HandlerImpl serves one Kind. The router mounts one instance for tags and
// one for ingredients.
type HandlerImpl struct {
	service Service
	kind    Kind
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, kind Kind, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("taxonomy.NewHandlerImpl: nil logger")
	}
	return &HandlerImpl{
		service: service,
		kind:    kind,
		logger:  logger.With(slog.String("kind", kind.Name)),
	}
}

func (h *HandlerImpl) start(r *http.Request, method, route string) (*http.Request, trace.Span, uuid.UUID, bool) {
	ctx, span := otel.Tracer("TaxonomyHandler").Start(r.Context(), method, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(h.kind.Route+route),
		attribute.String("label.kind", h.kind.Name),
	))
	userID, ok := auth.GetUserIDFromContext(ctx)
	if ok {
		span.SetAttributes(attribute.String("user.id", userID.String()))
	}
	return r.WithContext(ctx), span, userID, ok
}

func (h *HandlerImpl) fail(w http.ResponseWriter, r *http.Request, span trace.Span, err error, msg string) {
	var verr *types.ValidationError
	if !errors.As(err, &verr) && !errors.Is(err, types.ErrNotFound) && !errors.Is(err, types.ErrBadRequest) {
		h.logger.ErrorContext(r.Context(), msg, slog.Any("error", err))
		span.RecordError(err)
	}
	span.SetStatus(codes.Error, msg)
	api.HandleError(w, r, err, msg)
}

// List godoc
// @Summary      List tags or ingredients
// @Description  Returns the caller's labels ordered by name descending. assigned_only=1 keeps only labels used by a recipe.
// @Tags         Taxonomy
// @Produce      json
// @Param        assigned_only query int false "0 or 1"
// @Success      200 {array} types.Label
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     TokenAuth
// @Router       /tags [get]
// @Router       /ingredients [get]
func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	r, span, userID, ok := h.start(r, "List", "")
	defer span.End()
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	assignedOnly, err := api.QueryFlag(r, "assigned_only")
	if err != nil {
		h.fail(w, r, span, err, "Invalid assigned_only value")
		return
	}

	labels, err := h.service.ListLabels(r.Context(), h.kind, userID, types.LabelFilter{AssignedOnly: assignedOnly})
	if err != nil {
		h.fail(w, r, span, err, "Failed to list "+h.kind.Name+"s")
		return
	}

	span.SetStatus(codes.Ok, "Listed")
	api.WriteJSONResponse(w, r, http.StatusOK, labels)
}

// Create godoc
// @Summary      Create a tag or ingredient
// @Tags         Taxonomy
// @Accept       json
// @Produce      json
// @Param        label body types.LabelParams true "Label"
// @Success      201 {object} types.Label
// @Failure      400 {object} map[string][]string "Validation errors"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     TokenAuth
// @Router       /tags [post]
// @Router       /ingredients [post]
func (h *HandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	r, span, userID, ok := h.start(r, "Create", "")
	defer span.End()
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.LabelParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.DecodeError(w, r, err)
		return
	}

	label, err := h.service.CreateLabel(r.Context(), h.kind, userID, params)
	if err != nil {
		h.fail(w, r, span, err, "Failed to create "+h.kind.Name)
		return
	}

	span.SetStatus(codes.Ok, "Created")
	api.WriteJSONResponse(w, r, http.StatusCreated, label)
}

// Get godoc
// @Summary      Retrieve a tag or ingredient
// @Tags         Taxonomy
// @Produce      json
// @Param        id path int true "Label ID"
// @Success      200 {object} types.Label
// @Failure      404 {object} types.Response "Not found"
// @Security     TokenAuth
// @Router       /tags/{id} [get]
// @Router       /ingredients/{id} [get]
func (h *HandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	r, span, userID, ok := h.start(r, "Get", "/{id}")
	defer span.End()
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := api.URLParamInt64(r, "id")
	if err != nil {
		h.fail(w, r, span, err, "Invalid id")
		return
	}

	label, err := h.service.GetLabel(r.Context(), h.kind, userID, id)
	if err != nil {
		h.fail(w, r, span, err, "Failed to fetch "+h.kind.Name)
		return
	}

	span.SetStatus(codes.Ok, "Fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, label)
}

// Update godoc
// @Summary      Rename a tag or ingredient
// @Tags         Taxonomy
// @Accept       json
// @Produce      json
// @Param        id path int true "Label ID"
// @Param        label body types.LabelParams true "Label"
// @Success      200 {object} types.Label
// @Failure      400 {object} map[string][]string "Validation errors"
// @Failure      404 {object} types.Response "Not found"
// @Security     TokenAuth
// @Router       /tags/{id} [patch]
// @Router       /ingredients/{id} [patch]
func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	r, span, userID, ok := h.start(r, "Update", "/{id}")
	defer span.End()
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := api.URLParamInt64(r, "id")
	if err != nil {
		h.fail(w, r, span, err, "Invalid id")
		return
	}

	var params types.LabelParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.DecodeError(w, r, err)
		return
	}

	label, err := h.service.UpdateLabel(r.Context(), h.kind, userID, id, params)
	if err != nil {
		h.fail(w, r, span, err, "Failed to update "+h.kind.Name)
		return
	}

	span.SetStatus(codes.Ok, "Updated")
	api.WriteJSONResponse(w, r, http.StatusOK, label)
}

// Delete godoc
// @Summary      Delete a tag or ingredient
// @Description  Removes the label; recipes that referenced it lose the link.
// @Tags         Taxonomy
// @Param        id path int true "Label ID"
// @Success      204 "Deleted"
// @Failure      404 {object} types.Response "Not found"
// @Security     TokenAuth
// @Router       /tags/{id} [delete]
// @Router       /ingredients/{id} [delete]
func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	r, span, userID, ok := h.start(r, "Delete", "/{id}")
	defer span.End()
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := api.URLParamInt64(r, "id")
	if err != nil {
		h.fail(w, r, span, err, "Invalid id")
		return
	}

	if err := h.service.DeleteLabel(r.Context(), h.kind, userID, id); err != nil {
		h.fail(w, r, span, err, "Failed to delete "+h.kind.Name)
		return
	}

	span.SetStatus(codes.Ok, "Deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
