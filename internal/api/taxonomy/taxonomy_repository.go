package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-recipe-api/app/db"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

// Kind describes one flat, user-owned label table and the table linking it to recipes.
type Kind struct {
	Name       string
	Route      string
	Table      string
	LinkTable  string
	LinkColumn string
}

var (
	TagKind = Kind{
		Name:       "tag",
		Route:      "/tags",
		Table:      "tags",
		LinkTable:  "recipe_tags",
		LinkColumn: "tag_id",
	}
	IngredientKind = Kind{
		Name:       "ingredient",
		Route:      "/ingredients",
		Table:      "ingredients",
		LinkTable:  "recipe_ingredients",
		LinkColumn: "ingredient_id",
	}
)

var _ Repo = (*PostgresRepo)(nil)

// Repo persists tags and ingredients. Every query is scoped to the owner.
type Repo interface {
	List(ctx context.Context, kind Kind, userID uuid.UUID, filter types.LabelFilter) ([]types.Label, error)
	Create(ctx context.Context, kind Kind, userID uuid.UUID, name string) (*types.Label, error)
	Get(ctx context.Context, kind Kind, userID uuid.UUID, id int64) (*types.Label, error)
	Update(ctx context.Context, kind Kind, userID uuid.UUID, id int64, name string) (*types.Label, error)
	Delete(ctx context.Context, kind Kind, userID uuid.UUID, id int64) error
}

type PostgresRepo struct {
	logger *slog.Logger
	pgpool database.DB
}

func NewPostgresRepo(pgxpool database.DB, logger *slog.Logger) *PostgresRepo {
	return &PostgresRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

func startSpan(ctx context.Context, kind Kind, op, method string, userID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer("TaxonomyRepo").Start(ctx, method, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", kind.Table),
		attribute.String("db.user.id", userID.String()),
	))
}

func listQuery(kind Kind, assignedOnly bool) string {
	q := fmt.Sprintf(`SELECT t.id, t.name, t.user_id FROM %s t WHERE t.user_id = $1`, kind.Table)
	if assignedOnly {
		q += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM %s l WHERE l.%s = t.id)`, kind.LinkTable, kind.LinkColumn)
	}
	return q + ` ORDER BY t.name DESC, t.id DESC`
}

// List implements taxonomy.Repo.
func (r *PostgresRepo) List(ctx context.Context, kind Kind, userID uuid.UUID, filter types.LabelFilter) ([]types.Label, error) {
	ctx, span := startSpan(ctx, kind, "SELECT", "List", userID)
	defer span.End()
	span.SetAttributes(attribute.Bool("filter.assigned_only", filter.AssignedOnly))

	l := r.logger.With(slog.String("method", "List"), slog.String("kind", kind.Name))

	labels := []types.Label{}
	if err := pgxscan.Select(ctx, r.pgpool, &labels, listQuery(kind, filter.AssignedOnly), userID); err != nil {
		l.ErrorContext(ctx, "Failed to list labels", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing %ss: %w", kind.Name, err)
	}

	l.DebugContext(ctx, "Listed labels", slog.Int("count", len(labels)))
	span.SetStatus(codes.Ok, "Labels listed")
	return labels, nil
}

// Create implements taxonomy.Repo.
func (r *PostgresRepo) Create(ctx context.Context, kind Kind, userID uuid.UUID, name string) (*types.Label, error) {
	ctx, span := startSpan(ctx, kind, "INSERT", "Create", userID)
	defer span.End()

	query := fmt.Sprintf(`INSERT INTO %s (name, user_id) VALUES ($1, $2) RETURNING id, name, user_id`, kind.Table)

	var label types.Label
	if err := pgxscan.Get(ctx, r.pgpool, &label, query, name, userID); err != nil {
		if database.IsPgError(err, database.ForeignKeyViolation) {
			span.SetStatus(codes.Error, "Owner missing")
			return nil, fmt.Errorf("owner does not exist: %w", types.ErrUnauthenticated)
		}
		r.logger.ErrorContext(ctx, "Failed to insert label", slog.String("kind", kind.Name), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating %s: %w", kind.Name, err)
	}

	span.SetStatus(codes.Ok, "Label created")
	return &label, nil
}

// Get implements taxonomy.Repo.
func (r *PostgresRepo) Get(ctx context.Context, kind Kind, userID uuid.UUID, id int64) (*types.Label, error) {
	ctx, span := startSpan(ctx, kind, "SELECT", "Get", userID)
	defer span.End()

	query := fmt.Sprintf(`SELECT id, name, user_id FROM %s WHERE id = $1 AND user_id = $2`, kind.Table)

	var label types.Label
	if err := pgxscan.Get(ctx, r.pgpool, &label, query, id, userID); err != nil {
		if pgxscan.NotFound(err) {
			span.SetStatus(codes.Error, "Label not found")
			return nil, fmt.Errorf("%s %d not found: %w", kind.Name, id, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch label", slog.String("kind", kind.Name), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching %s: %w", kind.Name, err)
	}

	span.SetStatus(codes.Ok, "Label fetched")
	return &label, nil
}

// Update implements taxonomy.Repo.
func (r *PostgresRepo) Update(ctx context.Context, kind Kind, userID uuid.UUID, id int64, name string) (*types.Label, error) {
	ctx, span := startSpan(ctx, kind, "UPDATE", "Update", userID)
	defer span.End()

	query := fmt.Sprintf(`UPDATE %s SET name = $1 WHERE id = $2 AND user_id = $3 RETURNING id, name, user_id`, kind.Table)

	var label types.Label
	err := r.pgpool.QueryRow(ctx, query, name, id, userID).Scan(&label.ID, &label.Name, &label.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Label not found")
			return nil, fmt.Errorf("%s %d not found: %w", kind.Name, id, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to update label", slog.String("kind", kind.Name), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating %s: %w", kind.Name, err)
	}

	span.SetStatus(codes.Ok, "Label updated")
	return &label, nil
}

// Delete implements taxonomy.Repo. Recipe links cascade.
func (r *PostgresRepo) Delete(ctx context.Context, kind Kind, userID uuid.UUID, id int64) error {
	ctx, span := startSpan(ctx, kind, "DELETE", "Delete", userID)
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, kind.Table), id, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete label", slog.String("kind", kind.Name), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting %s: %w", kind.Name, err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Label not found")
		return fmt.Errorf("%s %d not found: %w", kind.Name, id, types.ErrNotFound)
	}

	span.SetStatus(codes.Ok, "Label deleted")
	return nil
}
