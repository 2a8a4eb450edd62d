package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-recipe-api/internal/api"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListLabels(ctx context.Context, kind Kind, userID uuid.UUID, filter types.LabelFilter) ([]types.Label, error)
	CreateLabel(ctx context.Context, kind Kind, userID uuid.UUID, params types.LabelParams) (*types.Label, error)
	GetLabel(ctx context.Context, kind Kind, userID uuid.UUID, id int64) (*types.Label, error)
	UpdateLabel(ctx context.Context, kind Kind, userID uuid.UUID, id int64, params types.LabelParams) (*types.Label, error)
	DeleteLabel(ctx context.Context, kind Kind, userID uuid.UUID, id int64) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repo
}

func NewService(repo Repo, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) span(ctx context.Context, method string, kind Kind, userID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer("TaxonomyService").Start(ctx, method, trace.WithAttributes(
		attribute.String("label.kind", kind.Name),
		attribute.String("user.id", userID.String()),
	))
}

func validateName(params types.LabelParams) (string, error) {
	params.Name = strings.TrimSpace(params.Name)
	if err := api.ValidateStruct(params); err != nil {
		return "", err
	}
	return params.Name, nil
}

func (s *ServiceImpl) ListLabels(ctx context.Context, kind Kind, userID uuid.UUID, filter types.LabelFilter) ([]types.Label, error) {
	ctx, span := s.span(ctx, "ListLabels", kind, userID)
	defer span.End()

	labels, err := s.repo.List(ctx, kind, userID, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, fmt.Errorf("error listing %ss: %w", kind.Name, err)
	}
	span.SetStatus(codes.Ok, "Labels listed")
	return labels, nil
}

func (s *ServiceImpl) CreateLabel(ctx context.Context, kind Kind, userID uuid.UUID, params types.LabelParams) (*types.Label, error) {
	ctx, span := s.span(ctx, "CreateLabel", kind, userID)
	defer span.End()

	name, err := validateName(params)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid name")
		return nil, err
	}

	label, err := s.repo.Create(ctx, kind, userID, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Create failed")
		return nil, fmt.Errorf("error creating %s: %w", kind.Name, err)
	}

	s.logger.InfoContext(ctx, "Label created",
		slog.String("kind", kind.Name),
		slog.Int64("id", label.ID),
		slog.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "Label created")
	return label, nil
}

func (s *ServiceImpl) GetLabel(ctx context.Context, kind Kind, userID uuid.UUID, id int64) (*types.Label, error) {
	ctx, span := s.span(ctx, "GetLabel", kind, userID)
	defer span.End()

	label, err := s.repo.Get(ctx, kind, userID, id)
	if err != nil {
		span.SetStatus(codes.Error, "Get failed")
		return nil, fmt.Errorf("error fetching %s: %w", kind.Name, err)
	}
	span.SetStatus(codes.Ok, "Label fetched")
	return label, nil
}

func (s *ServiceImpl) UpdateLabel(ctx context.Context, kind Kind, userID uuid.UUID, id int64, params types.LabelParams) (*types.Label, error) {
	ctx, span := s.span(ctx, "UpdateLabel", kind, userID)
	defer span.End()

	name, err := validateName(params)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid name")
		return nil, err
	}

	label, err := s.repo.Update(ctx, kind, userID, id, name)
	if err != nil {
		span.SetStatus(codes.Error, "Update failed")
		return nil, fmt.Errorf("error updating %s: %w", kind.Name, err)
	}
	span.SetStatus(codes.Ok, "Label updated")
	return label, nil
}

func (s *ServiceImpl) DeleteLabel(ctx context.Context, kind Kind, userID uuid.UUID, id int64) error {
	ctx, span := s.span(ctx, "DeleteLabel", kind, userID)
	defer span.End()

	if err := s.repo.Delete(ctx, kind, userID, id); err != nil {
		span.SetStatus(codes.Error, "Delete failed")
		return fmt.Errorf("error deleting %s: %w", kind.Name, err)
	}

	s.logger.InfoContext(ctx, "Label deleted", slog.String("kind", kind.Name), slog.Int64("id", id))
	span.SetStatus(codes.Ok, "Label deleted")
	return nil
}
