package recipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-recipe-api/app/observability/metrics"
	"github.com/FACorreiaa/go-recipe-api/internal/api"
	"github.com/FACorreiaa/go-recipe-api/internal/storage"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListRecipes(ctx context.Context, userID uuid.UUID, filter types.RecipeFilter) ([]types.RecipeResponse, error)
	CreateRecipe(ctx context.Context, userID uuid.UUID, params types.RecipeParams) (*types.RecipeResponse, error)
	GetRecipe(ctx context.Context, userID uuid.UUID, id int64) (*types.RecipeDetailResponse, error)
	// ReplaceRecipe is a full update: omitted tags or ingredients are cleared.
	ReplaceRecipe(ctx context.Context, userID uuid.UUID, id int64, params types.RecipeParams) (*types.RecipeResponse, error)
	// PatchRecipe only touches the supplied fields.
	PatchRecipe(ctx context.Context, userID uuid.UUID, id int64, params types.RecipeParams) (*types.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, userID uuid.UUID, id int64) error
	UploadImage(ctx context.Context, userID uuid.UUID, id int64, upload types.ImageUpload) (*types.RecipeImageResponse, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repo
	store  storage.ImageStore
}

func NewService(repo Repo, store storage.ImageStore, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		store:  store,
	}
}

func (s *ServiceImpl) span(ctx context.Context, method string, userID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer("RecipeService").Start(ctx, method, trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
}

func (s *ServiceImpl) toResponse(rec *types.Recipe) types.RecipeResponse {
	return types.RecipeResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		Ingredients: nonNil(rec.IngredientIDs),
		Price:       rec.Price.StringFixed(2),
		TimeMinutes: rec.TimeMinutes,
		Tags:        nonNil(rec.TagIDs),
		Link:        rec.Link,
	}
}

func (s *ServiceImpl) imageURL(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	u := s.store.URL(*key)
	return &u
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// validateParams trims and checks the supplied fields. With partial set, nil
// fields are skipped; otherwise title, time_minutes and price are required.
func validateParams(params *types.RecipeParams, partial bool) error {
	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		params.Title = &title
	}
	if params.Link != nil {
		link := strings.TrimSpace(*params.Link)
		params.Link = &link
	}

	verr := &types.ValidationError{}
	if err := api.ValidateStruct(params); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	if !partial {
		if params.Title == nil {
			verr.Add("title", "This field is required.")
		}
		if params.TimeMinutes == nil {
			verr.Add("time_minutes", "This field is required.")
		}
		if params.Price == nil {
			verr.Add("price", "This field is required.")
		}
	}

	if verr.HasErrors() {
		return verr
	}

	params.TagIDs = dedupe(params.TagIDs)
	params.IngredientIDs = dedupe(params.IngredientIDs)
	if !partial {
		params.TagIDs = nonNil(params.TagIDs)
		params.IngredientIDs = nonNil(params.IngredientIDs)
	}
	return nil
}

func (s *ServiceImpl) ListRecipes(ctx context.Context, userID uuid.UUID, filter types.RecipeFilter) ([]types.RecipeResponse, error) {
	ctx, span := s.span(ctx, "ListRecipes", userID)
	defer span.End()

	recipes, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, fmt.Errorf("error listing recipes: %w", err)
	}

	out := make([]types.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, s.toResponse(&recipes[i]))
	}
	span.SetAttributes(attribute.Int("recipes.count", len(out)))
	span.SetStatus(codes.Ok, "Recipes listed")
	return out, nil
}

func (s *ServiceImpl) CreateRecipe(ctx context.Context, userID uuid.UUID, params types.RecipeParams) (*types.RecipeResponse, error) {
	ctx, span := s.span(ctx, "CreateRecipe", userID)
	defer span.End()

	if err := validateParams(&params, false); err != nil {
		span.SetStatus(codes.Error, "Invalid recipe")
		return nil, err
	}
	if params.Link == nil {
		empty := ""
		params.Link = &empty
	}

	rec, err := s.repo.Create(ctx, userID, params)
	if err != nil {
		span.SetStatus(codes.Error, "Create failed")
		return nil, fmt.Errorf("error creating recipe: %w", err)
	}

	s.logger.InfoContext(ctx, "Recipe created",
		slog.Int64("id", rec.ID),
		slog.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "Recipe created")
	resp := s.toResponse(rec)
	return &resp, nil
}

func (s *ServiceImpl) GetRecipe(ctx context.Context, userID uuid.UUID, id int64) (*types.RecipeDetailResponse, error) {
	ctx, span := s.span(ctx, "GetRecipe", userID)
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))

	rec, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		span.SetStatus(codes.Error, "Get failed")
		return nil, fmt.Errorf("error fetching recipe: %w", err)
	}
	tags, ingredients, err := s.repo.Labels(ctx, rec.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Labels failed")
		return nil, fmt.Errorf("error fetching recipe labels: %w", err)
	}

	span.SetStatus(codes.Ok, "Recipe fetched")
	return &types.RecipeDetailResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		Ingredients: ingredients,
		Price:       rec.Price.StringFixed(2),
		TimeMinutes: rec.TimeMinutes,
		Tags:        tags,
		Link:        rec.Link,
		Image:       s.imageURL(rec.Image),
	}, nil
}

func (s *ServiceImpl) ReplaceRecipe(ctx context.Context, userID uuid.UUID, id int64, params types.RecipeParams) (*types.RecipeResponse, error) {
	ctx, span := s.span(ctx, "ReplaceRecipe", userID)
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))

	if err := validateParams(&params, false); err != nil {
		span.SetStatus(codes.Error, "Invalid recipe")
		return nil, err
	}
	if params.Link == nil {
		empty := ""
		params.Link = &empty
	}
	return s.update(ctx, span, userID, id, params)
}

func (s *ServiceImpl) PatchRecipe(ctx context.Context, userID uuid.UUID, id int64, params types.RecipeParams) (*types.RecipeResponse, error) {
	ctx, span := s.span(ctx, "PatchRecipe", userID)
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))

	if err := validateParams(&params, true); err != nil {
		span.SetStatus(codes.Error, "Invalid recipe")
		return nil, err
	}
	return s.update(ctx, span, userID, id, params)
}

func (s *ServiceImpl) update(ctx context.Context, span trace.Span, userID uuid.UUID, id int64, params types.RecipeParams) (*types.RecipeResponse, error) {
	rec, err := s.repo.Update(ctx, userID, id, params)
	if err != nil {
		span.SetStatus(codes.Error, "Update failed")
		return nil, fmt.Errorf("error updating recipe: %w", err)
	}

	s.logger.InfoContext(ctx, "Recipe updated", slog.Int64("id", id))
	span.SetStatus(codes.Ok, "Recipe updated")
	resp := s.toResponse(rec)
	return &resp, nil
}

func (s *ServiceImpl) DeleteRecipe(ctx context.Context, userID uuid.UUID, id int64) error {
	ctx, span := s.span(ctx, "DeleteRecipe", userID)
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))

	image, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		span.SetStatus(codes.Error, "Delete failed")
		return fmt.Errorf("error deleting recipe: %w", err)
	}
	s.removeImage(ctx, image)

	s.logger.InfoContext(ctx, "Recipe deleted", slog.Int64("id", id))
	span.SetStatus(codes.Ok, "Recipe deleted")
	return nil
}

// removeImage deletes a stored image, logging failures instead of returning
// them: the database no longer references the key.
func (s *ServiceImpl) removeImage(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := s.store.Delete(ctx, *key); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete stored image",
			slog.String("key", *key),
			slog.Any("error", err))
	}
}

func (s *ServiceImpl) UploadImage(ctx context.Context, userID uuid.UUID, id int64, upload types.ImageUpload) (*types.RecipeImageResponse, error) {
	ctx, span := s.span(ctx, "UploadImage", userID)
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id), attribute.Int("image.size", len(upload.Data)))

	l := s.logger.With(slog.String("method", "UploadImage"), slog.Int64("recipeID", id))

	format, err := detectImage(upload.Data)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid image")
		return nil, err
	}

	// The recipe must exist before anything is written to the store.
	if _, err := s.repo.Get(ctx, userID, id); err != nil {
		span.SetStatus(codes.Error, "Recipe lookup failed")
		return nil, fmt.Errorf("error fetching recipe: %w", err)
	}

	key := imageKey(upload.Filename, format)
	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "image/" + format
	}
	if err := s.store.Put(ctx, key, bytes.NewReader(upload.Data), int64(len(upload.Data)), contentType); err != nil {
		l.ErrorContext(ctx, "Failed to store image", slog.String("key", key), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Store failed")
		return nil, fmt.Errorf("error storing image: %w", err)
	}

	previous, err := s.repo.SetImage(ctx, userID, id, key)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			l.WarnContext(ctx, "Failed to clean up stored image", slog.String("key", key), slog.Any("error", delErr))
		}
		if !errors.Is(err, types.ErrNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "Update failed")
		return nil, fmt.Errorf("error recording image: %w", err)
	}
	if previous != nil && *previous != key {
		s.removeImage(ctx, previous)
	}

	metrics.Get().RecipeImagesUploaded.Add(ctx, 1)
	l.InfoContext(ctx, "Recipe image uploaded", slog.String("key", key), slog.String("format", format))
	span.SetStatus(codes.Ok, "Image uploaded")
	return &types.RecipeImageResponse{ID: id, Image: s.imageURL(&key)}, nil
}
