package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-recipe-api/app/db"
	"github.com/FACorreiaa/go-recipe-api/app/observability/metrics"
	"github.com/FACorreiaa/go-recipe-api/internal/api/taxonomy"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

var _ Repo = (*PostgresRepo)(nil)

// Repo persists recipes and their tag and ingredient links. Every query is
// scoped to the owning user.
type Repo interface {
	List(ctx context.Context, userID uuid.UUID, filter types.RecipeFilter) ([]types.Recipe, error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (*types.Recipe, error)
	// Create inserts the recipe and its links in one transaction. Title,
	// TimeMinutes and Price must be set.
	Create(ctx context.Context, userID uuid.UUID, params types.RecipeParams) (*types.Recipe, error)
	// Update applies the non-nil fields. A nil TagIDs or IngredientIDs leaves
	// that link set alone; a non-nil one replaces it.
	Update(ctx context.Context, userID uuid.UUID, id int64, params types.RecipeParams) (*types.Recipe, error)
	// Delete removes the recipe and returns the image key it referenced.
	Delete(ctx context.Context, userID uuid.UUID, id int64) (*string, error)
	// SetImage records a new image key and returns the previous one.
	SetImage(ctx context.Context, userID uuid.UUID, id int64, key string) (*string, error)
	// Labels returns the tags and ingredients linked to a recipe.
	Labels(ctx context.Context, recipeID int64) (tags, ingredients []types.Label, err error)
}

const recipeColumns = `r.id, r.user_id, r.title, r.time_minutes, r.price, r.link, r.image, r.created_at, r.updated_at`

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

func startSpan(ctx context.Context, method, op string, userID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer("RecipeRepo").Start(ctx, method, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", "recipes"),
		attribute.String("db.user.id", userID.String()),
	))
}

// listQuery builds the owner-scoped listing. Each filter is an EXISTS
// semi-join so a recipe matching several ids is returned once.
func listQuery(filter types.RecipeFilter) (string, []any) {
	var b strings.Builder
	args := []any{}

	b.WriteString(`SELECT ` + recipeColumns + ` FROM recipes r WHERE r.user_id = $1`)
	if len(filter.TagIDs) > 0 {
		args = append(args, filter.TagIDs)
		fmt.Fprintf(&b, ` AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY($%d))`, len(args)+1)
	}
	if len(filter.IngredientIDs) > 0 {
		args = append(args, filter.IngredientIDs)
		fmt.Fprintf(&b, ` AND EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND ri.ingredient_id = ANY($%d))`, len(args)+1)
	}
	b.WriteString(` ORDER BY r.id DESC`)
	return b.String(), args
}

// List implements recipe.Repo.
func (r *PostgresRepo) List(ctx context.Context, userID uuid.UUID, filter types.RecipeFilter) ([]types.Recipe, error) {
	ctx, span := startSpan(ctx, "List", "SELECT", userID)
	defer span.End()
	span.SetAttributes(
		attribute.Int("filter.tags", len(filter.TagIDs)),
		attribute.Int("filter.ingredients", len(filter.IngredientIDs)),
	)

	l := r.logger.With(slog.String("method", "List"), slog.String("userID", userID.String()))
	start := time.Now()

	query, extra := listQuery(filter)
	args := append([]any{userID}, extra...)

	recipes := []types.Recipe{}
	err := pgxscan.Select(ctx, r.pgpool, &recipes, query, args...)
	if err == nil {
		err = r.attachLinks(ctx, r.pgpool, recipes)
	}
	metrics.Get().ObserveQuery(ctx, "recipes.list", start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list recipes", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing recipes: %w", err)
	}

	l.DebugContext(ctx, "Listed recipes", slog.Int("count", len(recipes)))
	span.SetStatus(codes.Ok, "Recipes listed")
	return recipes, nil
}

// attachLinks loads the link ids of every recipe in two queries.
func (r *PostgresRepo) attachLinks(ctx context.Context, q pgxscan.Querier, recipes []types.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		index[recipes[i].ID] = i
		recipes[i].TagIDs = []int64{}
		recipes[i].IngredientIDs = []int64{}
	}

	type link struct {
		RecipeID int64 `db:"recipe_id"`
		LabelID  int64 `db:"label_id"`
	}
	for _, kind := range []taxonomy.Kind{taxonomy.TagKind, taxonomy.IngredientKind} {
		var links []link
		query := fmt.Sprintf(`SELECT recipe_id, %s AS label_id FROM %s WHERE recipe_id = ANY($1) ORDER BY recipe_id, %s`,
			kind.LinkColumn, kind.LinkTable, kind.LinkColumn)
		if err := pgxscan.Select(ctx, q, &links, query, ids); err != nil {
			return fmt.Errorf("loading %s links: %w", kind.Name, err)
		}
		for _, lk := range links {
			rec := &recipes[index[lk.RecipeID]]
			if kind == taxonomy.TagKind {
				rec.TagIDs = append(rec.TagIDs, lk.LabelID)
			} else {
				rec.IngredientIDs = append(rec.IngredientIDs, lk.LabelID)
			}
		}
	}
	return nil
}

func (r *PostgresRepo) getOne(ctx context.Context, q pgxscan.Querier, userID uuid.UUID, id int64) (*types.Recipe, error) {
	var rec types.Recipe
	err := pgxscan.Get(ctx, q, &rec, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1 AND r.user_id = $2`, id, userID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("recipe %d not found: %w", id, types.ErrNotFound)
		}
		return nil, err
	}
	recipes := []types.Recipe{rec}
	if err := r.attachLinks(ctx, q, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// Get implements recipe.Repo.
func (r *PostgresRepo) Get(ctx context.Context, userID uuid.UUID, id int64) (*types.Recipe, error) {
	ctx, span := startSpan(ctx, "Get", "SELECT", userID)
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))

	start := time.Now()
	rec, err := r.getOne(ctx, r.pgpool, userID, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Recipe not found")
			return nil, err
		}
		metrics.Get().ObserveQuery(ctx, "recipes.get", start, err)
		r.logger.ErrorContext(ctx, "Failed to fetch recipe", slog.Int64("recipeID", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching recipe: %w", err)
	}
	metrics.Get().ObserveQuery(ctx, "recipes.get", start, nil)

	span.SetStatus(codes.Ok, "Recipe fetched")
	return rec, nil
}

// checkOwned reports every requested id that does not name a label owned by
// userID, in request order, under the field name used by clients.
func checkOwned(ctx context.Context, tx pgx.Tx, verr *types.ValidationError, field string, kind taxonomy.Kind, userID uuid.UUID, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	var found []int64
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1 AND id = ANY($2)`, kind.Table)
	if err := pgxscan.Select(ctx, tx, &found, query, userID, ids); err != nil {
		return fmt.Errorf("checking %s ids: %w", kind.Name, err)
	}
	owned := make(map[int64]struct{}, len(found))
	for _, id := range found {
		owned[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := owned[id]; !ok {
			verr.Add(field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	return nil
}

func replaceLinks(ctx context.Context, tx pgx.Tx, kind taxonomy.Kind, recipeID int64, ids []int64) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, kind.LinkTable), recipeID); err != nil {
		return fmt.Errorf("clearing %s links: %w", kind.Name, err)
	}
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (recipe_id, %s) SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`,
		kind.LinkTable, kind.LinkColumn)
	if _, err := tx.Exec(ctx, query, recipeID, ids); err != nil {
		return fmt.Errorf("linking %ss: %w", kind.Name, err)
	}
	return nil
}

// validateLinks checks both link sets so a client sees every bad id at once.
func validateLinks(ctx context.Context, tx pgx.Tx, userID uuid.UUID, params types.RecipeParams) error {
	verr := &types.ValidationError{}
	if err := checkOwned(ctx, tx, verr, "tags", taxonomy.TagKind, userID, params.TagIDs); err != nil {
		return err
	}
	if err := checkOwned(ctx, tx, verr, "ingredients", taxonomy.IngredientKind, userID, params.IngredientIDs); err != nil {
		return err
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (r *PostgresRepo) writeLinks(ctx context.Context, tx pgx.Tx, recipeID int64, params types.RecipeParams) error {
	if params.TagIDs != nil {
		if err := replaceLinks(ctx, tx, taxonomy.TagKind, recipeID, params.TagIDs); err != nil {
			return err
		}
	}
	if params.IngredientIDs != nil {
		if err := replaceLinks(ctx, tx, taxonomy.IngredientKind, recipeID, params.IngredientIDs); err != nil {
			return err
		}
	}
	return nil
}

// Create implements recipe.Repo.
func (r *PostgresRepo) Create(ctx context.Context, userID uuid.UUID, params types.RecipeParams) (*types.Recipe, error) {
	ctx, span := startSpan(ctx, "Create", "INSERT", userID)
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"), slog.String("userID", userID.String()))
	start := time.Now()

	rec, err := r.inTx(ctx, func(tx pgx.Tx) (*types.Recipe, error) {
		if err := validateLinks(ctx, tx, userID, params); err != nil {
			return nil, err
		}

		link := ""
		if params.Link != nil {
			link = *params.Link
		}
		var id int64
		err := tx.QueryRow(ctx, `
            INSERT INTO recipes (user_id, title, time_minutes, price, link)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id`,
			userID, *params.Title, *params.TimeMinutes, *params.Price, link).Scan(&id)
		if err != nil {
			if database.IsPgError(err, database.ForeignKeyViolation) {
				return nil, fmt.Errorf("owner does not exist: %w", types.ErrUnauthenticated)
			}
			return nil, fmt.Errorf("inserting recipe: %w", err)
		}

		if err := r.writeLinks(ctx, tx, id, params); err != nil {
			return nil, err
		}
		return r.getOne(ctx, tx, userID, id)
	})
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			span.SetStatus(codes.Error, "Invalid links")
			return nil, err
		}
		if errors.Is(err, types.ErrUnauthenticated) {
			span.SetStatus(codes.Error, "Owner missing")
			return nil, err
		}
		metrics.Get().ObserveQuery(ctx, "recipes.create", start, err)
		l.ErrorContext(ctx, "Failed to create recipe", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating recipe: %w", err)
	}
	metrics.Get().ObserveQuery(ctx, "recipes.create", start, nil)

	l.InfoContext(ctx, "Recipe created", slog.Int64("recipeID", rec.ID))
	span.SetAttributes(attribute.Int64("recipe.id", rec.ID))
	span.SetStatus(codes.Ok, "Recipe created")
	return rec, nil
}

// Update implements recipe.Repo. Concurrent updates of one recipe are
// last-writer-wins.
func (r *PostgresRepo) Update(ctx context.Context, userID uuid.UUID, id int64, params types.RecipeParams) (*types.Recipe, error) {
	ctx, span := startSpan(ctx, "Update", "UPDATE", userID)
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))

	l := r.logger.With(slog.String("method", "Update"), slog.Int64("recipeID", id))
	start := time.Now()

	rec, err := r.inTx(ctx, func(tx pgx.Tx) (*types.Recipe, error) {
		var setClauses []string
		var args []interface{}
		argID := 1

		if params.Title != nil {
			setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
			args = append(args, *params.Title)
			argID++
		}
		if params.TimeMinutes != nil {
			setClauses = append(setClauses, fmt.Sprintf("time_minutes = $%d", argID))
			args = append(args, *params.TimeMinutes)
			argID++
		}
		if params.Price != nil {
			setClauses = append(setClauses, fmt.Sprintf("price = $%d", argID))
			args = append(args, *params.Price)
			argID++
		}
		if params.Link != nil {
			setClauses = append(setClauses, fmt.Sprintf("link = $%d", argID))
			args = append(args, *params.Link)
			argID++
		}
		setClauses = append(setClauses, "updated_at = NOW()")
		args = append(args, id, userID)

		query := fmt.Sprintf(`UPDATE recipes SET %s WHERE id = $%d AND user_id = $%d RETURNING id`,
			strings.Join(setClauses, ", "), argID, argID+1)

		var updated int64
		if err := tx.QueryRow(ctx, query, args...).Scan(&updated); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("recipe %d not found: %w", id, types.ErrNotFound)
			}
			return nil, fmt.Errorf("updating recipe: %w", err)
		}

		if err := validateLinks(ctx, tx, userID, params); err != nil {
			return nil, err
		}
		if err := r.writeLinks(ctx, tx, id, params); err != nil {
			return nil, err
		}
		return r.getOne(ctx, tx, userID, id)
	})
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) || errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Recipe not updated")
			return nil, err
		}
		metrics.Get().ObserveQuery(ctx, "recipes.update", start, err)
		l.ErrorContext(ctx, "Failed to update recipe", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating recipe: %w", err)
	}
	metrics.Get().ObserveQuery(ctx, "recipes.update", start, nil)

	l.InfoContext(ctx, "Recipe updated")
	span.SetStatus(codes.Ok, "Recipe updated")
	return rec, nil
}

// Delete implements recipe.Repo.
func (r *PostgresRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) (*string, error) {
	ctx, span := startSpan(ctx, "Delete", "DELETE", userID)
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))

	start := time.Now()
	var image *string
	err := r.pgpool.QueryRow(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2 RETURNING image`, id, userID).Scan(&image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Recipe not found")
			return nil, fmt.Errorf("recipe %d not found: %w", id, types.ErrNotFound)
		}
		metrics.Get().ObserveQuery(ctx, "recipes.delete", start, err)
		r.logger.ErrorContext(ctx, "Failed to delete recipe", slog.Int64("recipeID", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return nil, fmt.Errorf("database error deleting recipe: %w", err)
	}
	metrics.Get().ObserveQuery(ctx, "recipes.delete", start, nil)

	r.logger.InfoContext(ctx, "Recipe deleted", slog.Int64("recipeID", id))
	span.SetStatus(codes.Ok, "Recipe deleted")
	return image, nil
}

// SetImage implements recipe.Repo.
func (r *PostgresRepo) SetImage(ctx context.Context, userID uuid.UUID, id int64, key string) (*string, error) {
	ctx, span := startSpan(ctx, "SetImage", "UPDATE", userID)
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))

	start := time.Now()
	var previous *string
	_, err := r.inTx(ctx, func(tx pgx.Tx) (*types.Recipe, error) {
		err := tx.QueryRow(ctx, `SELECT image FROM recipes WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID).Scan(&previous)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("recipe %d not found: %w", id, types.ErrNotFound)
			}
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE recipes SET image = $1, updated_at = NOW() WHERE id = $2`, key, id); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Recipe not found")
			return nil, err
		}
		metrics.Get().ObserveQuery(ctx, "recipes.set_image", start, err)
		r.logger.ErrorContext(ctx, "Failed to set recipe image", slog.Int64("recipeID", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error setting recipe image: %w", err)
	}
	metrics.Get().ObserveQuery(ctx, "recipes.set_image", start, nil)

	span.SetStatus(codes.Ok, "Image recorded")
	return previous, nil
}

// Labels implements recipe.Repo.
func (r *PostgresRepo) Labels(ctx context.Context, recipeID int64) ([]types.Label, []types.Label, error) {
	ctx, span := otel.Tracer("RecipeRepo").Start(ctx, "Labels", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "recipe_tags, recipe_ingredients"),
		attribute.Int64("recipe.id", recipeID),
	))
	defer span.End()

	load := func(kind taxonomy.Kind) ([]types.Label, error) {
		labels := []types.Label{}
		query := fmt.Sprintf(`
            SELECT t.id, t.name, t.user_id
            FROM %s t
            JOIN %s l ON l.%s = t.id
            WHERE l.recipe_id = $1
            ORDER BY t.id`, kind.Table, kind.LinkTable, kind.LinkColumn)
		if err := pgxscan.Select(ctx, r.pgpool, &labels, query, recipeID); err != nil {
			return nil, fmt.Errorf("loading %ss: %w", kind.Name, err)
		}
		return labels, nil
	}

	tags, err := load(taxonomy.TagKind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, nil, err
	}
	ingredients, err := load(taxonomy.IngredientKind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, nil, err
	}

	span.SetStatus(codes.Ok, "Labels loaded")
	return tags, ingredients, nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (r *PostgresRepo) inTx(ctx context.Context, fn func(tx pgx.Tx) (*types.Recipe, error)) (*types.Recipe, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	rec, err := fn(tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return rec, nil
}
