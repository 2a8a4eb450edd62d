package recipe

import (
	"errors"
	"fmt"
	"io"
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

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("recipe.NewHandlerImpl: nil logger")
	}
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

func (h *HandlerImpl) start(r *http.Request, method, route string) (*http.Request, trace.Span, uuid.UUID, bool) {
	ctx, span := otel.Tracer("RecipeHandler").Start(r.Context(), method, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/recipes"+route),
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
// @Summary      List recipes
// @Description  Returns the caller's recipes, newest first. tags and ingredients take comma-separated ids; a recipe matches when it has any of the listed tags and any of the listed ingredients.
// @Tags         Recipes
// @Produce      json
// @Param        tags query string false "Tag ids, e.g. 1,2"
// @Param        ingredients query string false "Ingredient ids, e.g. 3"
// @Success      200 {array} types.RecipeResponse
// @Failure      400 {object} types.Response "Malformed id list"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     TokenAuth
// @Router       /recipes [get]
func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	r, span, userID, ok := h.start(r, "List", "")
	defer span.End()
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var filter types.RecipeFilter
	var err error
	if filter.TagIDs, err = api.ParseIDList(r.URL.Query().Get("tags")); err != nil {
		h.fail(w, r, span, err, "Invalid tags filter")
		return
	}
	if filter.IngredientIDs, err = api.ParseIDList(r.URL.Query().Get("ingredients")); err != nil {
		h.fail(w, r, span, err, "Invalid ingredients filter")
		return
	}

	recipes, err := h.service.ListRecipes(r.Context(), userID, filter)
	if err != nil {
		h.fail(w, r, span, err, "Failed to list recipes")
		return
	}

	span.SetStatus(codes.Ok, "Listed")
	api.WriteJSONResponse(w, r, http.StatusOK, recipes)
}

// Create godoc
// @Summary      Create a recipe
// @Tags         Recipes
// @Accept       json
// @Produce      json
// @Param        recipe body types.RecipeParams true "Recipe"
// @Success      201 {object} types.RecipeResponse
// @Failure      400 {object} map[string][]string "Validation errors"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     TokenAuth
// @Router       /recipes [post]
func (h *HandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	r, span, userID, ok := h.start(r, "Create", "")
	defer span.End()
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.RecipeParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.DecodeError(w, r, err)
		return
	}

	recipe, err := h.service.CreateRecipe(r.Context(), userID, params)
	if err != nil {
		h.fail(w, r, span, err, "Failed to create recipe")
		return
	}

	span.SetAttributes(attribute.Int64("recipe.id", recipe.ID))
	span.SetStatus(codes.Ok, "Created")
	api.WriteJSONResponse(w, r, http.StatusCreated, recipe)
}

// Get godoc
// @Summary      Retrieve a recipe
// @Description  Tags and ingredients are expanded into objects; image is the stored image URL or null.
// @Tags         Recipes
// @Produce      json
// @Param        id path int true "Recipe ID"
// @Success      200 {object} types.RecipeDetailResponse
// @Failure      404 {object} types.Response "Not found"
// @Security     TokenAuth
// @Router       /recipes/{id} [get]
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

	recipe, err := h.service.GetRecipe(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, span, err, "Failed to fetch recipe")
		return
	}

	span.SetStatus(codes.Ok, "Fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, recipe)
}

// Update godoc
// @Summary      Replace a recipe
// @Description  Full update. Omitting tags or ingredients clears them.
// @Tags         Recipes
// @Accept       json
// @Produce      json
// @Param        id path int true "Recipe ID"
// @Param        recipe body types.RecipeParams true "Recipe"
// @Success      200 {object} types.RecipeResponse
// @Failure      400 {object} map[string][]string "Validation errors"
// @Failure      404 {object} types.Response "Not found"
// @Security     TokenAuth
// @Router       /recipes/{id} [put]
func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, "Update", false)
}

// Patch godoc
// @Summary      Partially update a recipe
// @Description  Only supplied fields change. Tags or ingredients are replaced only when present in the body.
// @Tags         Recipes
// @Accept       json
// @Produce      json
// @Param        id path int true "Recipe ID"
// @Param        recipe body types.RecipeParams true "Fields to change"
// @Success      200 {object} types.RecipeResponse
// @Failure      400 {object} map[string][]string "Validation errors"
// @Failure      404 {object} types.Response "Not found"
// @Security     TokenAuth
// @Router       /recipes/{id} [patch]
func (h *HandlerImpl) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, "Patch", true)
}

func (h *HandlerImpl) update(w http.ResponseWriter, r *http.Request, method string, partial bool) {
	r, span, userID, ok := h.start(r, method, "/{id}")
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

	var params types.RecipeParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.DecodeError(w, r, err)
		return
	}

	var recipe *types.RecipeResponse
	if partial {
		recipe, err = h.service.PatchRecipe(r.Context(), userID, id, params)
	} else {
		recipe, err = h.service.ReplaceRecipe(r.Context(), userID, id, params)
	}
	if err != nil {
		h.fail(w, r, span, err, "Failed to update recipe")
		return
	}

	span.SetStatus(codes.Ok, "Updated")
	api.WriteJSONResponse(w, r, http.StatusOK, recipe)
}

// Delete godoc
// @Summary      Delete a recipe
// @Tags         Recipes
// @Param        id path int true "Recipe ID"
// @Success      204 "Deleted"
// @Failure      404 {object} types.Response "Not found"
// @Security     TokenAuth
// @Router       /recipes/{id} [delete]
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

	if err := h.service.DeleteRecipe(r.Context(), userID, id); err != nil {
		h.fail(w, r, span, err, "Failed to delete recipe")
		return
	}

	span.SetStatus(codes.Ok, "Deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// UploadImage godoc
// @Summary      Upload a recipe image
// @Description  Accepts a JPEG, PNG or GIF in the multipart field "image" and replaces any previous image.
// @Tags         Recipes
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path int true "Recipe ID"
// @Param        image formData file true "Image file"
// @Success      200 {object} types.RecipeImageResponse
// @Failure      400 {object} map[string][]string "Validation errors"
// @Failure      404 {object} types.Response "Not found"
// @Security     TokenAuth
// @Router       /recipes/{id}/upload-image [post]
func (h *HandlerImpl) UploadImage(w http.ResponseWriter, r *http.Request) {
	r, span, userID, ok := h.start(r, "UploadImage", "/{id}/upload-image")
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

	upload, err := readImageField(w, r)
	if err != nil {
		h.fail(w, r, span, err, "Invalid image upload")
		return
	}

	resp, err := h.service.UploadImage(r.Context(), userID, id, upload)
	if err != nil {
		h.fail(w, r, span, err, "Failed to upload image")
		return
	}

	span.SetStatus(codes.Ok, "Uploaded")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func readImageField(w http.ResponseWriter, r *http.Request) (types.ImageUpload, error) {
	// headroom for the multipart envelope
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return types.ImageUpload{}, types.NewValidationError("image",
				fmt.Sprintf("Ensure the file is no larger than %d bytes.", MaxImageSize))
		}
		return types.ImageUpload{}, types.NewValidationError("image", "No file was submitted.")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return types.ImageUpload{}, types.NewValidationError("image", "No file was submitted.")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return types.ImageUpload{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return types.ImageUpload{}, types.NewValidationError("image",
			fmt.Sprintf("Ensure the file is no larger than %d bytes.", MaxImageSize))
	}

	return types.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
