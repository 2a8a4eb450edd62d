package recipe

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

var recipeCols = []string{"id", "user_id", "title", "time_minutes", "price", "link", "image", "created_at", "updated_at"}

const (
	tagLinksSQL        = "SELECT recipe_id, tag_id AS label_id FROM recipe_tags WHERE recipe_id = ANY($1)"
	ingredientLinksSQL = "SELECT recipe_id, ingredient_id AS label_id FROM recipe_ingredients WHERE recipe_id = ANY($1)"
	getRecipeSQL       = "FROM recipes r WHERE r.id = $1 AND r.user_id = $2"
)

func newMockRepo(t *testing.T) (*PostgresRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPostgresRepo(mockPool, slog.Default()), mockPool
}

func recipeRow(rows *pgxmock.Rows, id int64, userID uuid.UUID, title string) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(id, userID, title, 10, "5.00", "", nil, now, now)
}

func linkRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"recipe_id", "label_id"})
}

func TestListQuery(t *testing.T) {
	query, args := listQuery(types.RecipeFilter{})
	assert.NotContains(t, query, "EXISTS")
	assert.Contains(t, query, "WHERE r.user_id = $1 ORDER BY r.id DESC")
	assert.Empty(t, args)

	query, args = listQuery(types.RecipeFilter{TagIDs: []int64{1, 2}, IngredientIDs: []int64{3}})
	assert.Contains(t, query, "rt.tag_id = ANY($2)")
	assert.Contains(t, query, "ri.ingredient_id = ANY($3)")
	assert.Equal(t, []any{[]int64{1, 2}, []int64{3}}, args)

	query, _ = listQuery(types.RecipeFilter{IngredientIDs: []int64{3}})
	assert.Contains(t, query, "ri.ingredient_id = ANY($2)")
	assert.NotContains(t, query, "recipe_tags")
}

func TestPostgresRepo_List(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()
	filter := types.RecipeFilter{TagIDs: []int64{7}}
	query, _ := listQuery(filter)

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(userID, []int64{7}).
		WillReturnRows(recipeRow(recipeRow(pgxmock.NewRows(recipeCols), 2, userID, "Soup"), 1, userID, "Curry"))
	mockPool.ExpectQuery(regexp.QuoteMeta(tagLinksSQL)).
		WithArgs([]int64{2, 1}).
		WillReturnRows(linkRows().AddRow(int64(1), int64(7)).AddRow(int64(2), int64(7)).AddRow(int64(2), int64(8)))
	mockPool.ExpectQuery(regexp.QuoteMeta(ingredientLinksSQL)).
		WithArgs([]int64{2, 1}).
		WillReturnRows(linkRows().AddRow(int64(1), int64(3)))

	recipes, err := repo.List(context.Background(), userID, filter)

	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Soup", recipes[0].Title)
	assert.Equal(t, []int64{7, 8}, recipes[0].TagIDs)
	assert.Empty(t, recipes[0].IngredientIDs)
	assert.Equal(t, []int64{3}, recipes[1].IngredientIDs)
	assert.True(t, recipes[1].Price.Equal(decimal.RequireFromString("5")))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresRepo_ListEmpty(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()
	query, _ := listQuery(types.RecipeFilter{})

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(recipeCols))

	recipes, err := repo.List(context.Background(), userID, types.RecipeFilter{})

	require.NoError(t, err)
	assert.NotNil(t, recipes)
	assert.Empty(t, recipes)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresRepo_GetForeign(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()

	mockPool.ExpectQuery(regexp.QuoteMeta(getRecipeSQL)).
		WithArgs(int64(5), userID).
		WillReturnRows(pgxmock.NewRows(recipeCols))

	_, err := repo.Get(context.Background(), userID, 5)

	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPostgresRepo_Create(t *testing.T) {
	userID := uuid.New()
	title := "Chocolate cheesecake"
	minutes := 10
	price := decimal.RequireFromString("5.00")

	t.Run("WithTags", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		link := ""
		params := types.RecipeParams{
			Title: &title, TimeMinutes: &minutes, Price: &price, Link: &link,
			TagIDs: []int64{1, 2}, IngredientIDs: []int64{},
		}

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT id FROM tags WHERE user_id = $1 AND id = ANY($2)")).
			WithArgs(userID, []int64{1, 2}).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO recipes (user_id, title, time_minutes, price, link)")).
			WithArgs(userID, title, minutes, pgxmock.AnyArg(), "").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM recipe_tags WHERE recipe_id = $1")).
			WithArgs(int64(9)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO recipe_tags (recipe_id, tag_id) SELECT $1, unnest($2::bigint[])")).
			WithArgs(int64(9), []int64{1, 2}).
			WillReturnResult(pgxmock.NewResult("INSERT", 2))
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM recipe_ingredients WHERE recipe_id = $1")).
			WithArgs(int64(9)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectQuery(regexp.QuoteMeta(getRecipeSQL)).
			WithArgs(int64(9), userID).
			WillReturnRows(recipeRow(pgxmock.NewRows(recipeCols), 9, userID, title))
		mockPool.ExpectQuery(regexp.QuoteMeta(tagLinksSQL)).
			WithArgs([]int64{9}).
			WillReturnRows(linkRows().AddRow(int64(9), int64(1)).AddRow(int64(9), int64(2)))
		mockPool.ExpectQuery(regexp.QuoteMeta(ingredientLinksSQL)).
			WithArgs([]int64{9}).
			WillReturnRows(linkRows())
		mockPool.ExpectCommit()

		rec, err := repo.Create(context.Background(), userID, params)

		require.NoError(t, err)
		assert.Equal(t, int64(9), rec.ID)
		assert.Equal(t, []int64{1, 2}, rec.TagIDs)
		assert.Equal(t, []int64{}, rec.IngredientIDs)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UnknownIDsRollBack", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		params := types.RecipeParams{
			Title: &title, TimeMinutes: &minutes, Price: &price,
			TagIDs: []int64{1, 9}, IngredientIDs: []int64{4},
		}

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT id FROM tags WHERE user_id = $1 AND id = ANY($2)")).
			WithArgs(userID, []int64{1, 9}).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT id FROM ingredients WHERE user_id = $1 AND id = ANY($2)")).
			WithArgs(userID, []int64{4}).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))
		mockPool.ExpectRollback()

		_, err := repo.Create(context.Background(), userID, params)

		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{`Invalid pk "9" - object does not exist.`}, verr.Fields["tags"])
		assert.Equal(t, []string{`Invalid pk "4" - object does not exist.`}, verr.Fields["ingredients"])
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("OwnerDeleted", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		params := types.RecipeParams{
			Title: &title, TimeMinutes: &minutes, Price: &price,
			TagIDs: []int64{}, IngredientIDs: []int64{},
		}

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO recipes (user_id, title, time_minutes, price, link)")).
			WithArgs(userID, title, minutes, pgxmock.AnyArg(), "").
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "recipes_user_id_fkey"})
		mockPool.ExpectRollback()

		_, err := repo.Create(context.Background(), userID, params)

		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresRepo_Update(t *testing.T) {
	userID := uuid.New()

	t.Run("PartialKeepsLinks", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		title := "Soup"

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE recipes SET title = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3 RETURNING id")).
			WithArgs(title, int64(4), userID).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(4)))
		mockPool.ExpectQuery(regexp.QuoteMeta(getRecipeSQL)).
			WithArgs(int64(4), userID).
			WillReturnRows(recipeRow(pgxmock.NewRows(recipeCols), 4, userID, title))
		mockPool.ExpectQuery(regexp.QuoteMeta(tagLinksSQL)).
			WithArgs([]int64{4}).
			WillReturnRows(linkRows().AddRow(int64(4), int64(2)))
		mockPool.ExpectQuery(regexp.QuoteMeta(ingredientLinksSQL)).
			WithArgs([]int64{4}).
			WillReturnRows(linkRows())
		mockPool.ExpectCommit()

		rec, err := repo.Update(context.Background(), userID, 4, types.RecipeParams{Title: &title})

		require.NoError(t, err)
		assert.Equal(t, []int64{2}, rec.TagIDs)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("EmptyTagsClearLinks", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE recipes SET updated_at = NOW() WHERE id = $1 AND user_id = $2 RETURNING id")).
			WithArgs(int64(4), userID).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(4)))
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM recipe_tags WHERE recipe_id = $1")).
			WithArgs(int64(4)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mockPool.ExpectQuery(regexp.QuoteMeta(getRecipeSQL)).
			WithArgs(int64(4), userID).
			WillReturnRows(recipeRow(pgxmock.NewRows(recipeCols), 4, userID, "Soup"))
		mockPool.ExpectQuery(regexp.QuoteMeta(tagLinksSQL)).
			WithArgs([]int64{4}).
			WillReturnRows(linkRows())
		mockPool.ExpectQuery(regexp.QuoteMeta(ingredientLinksSQL)).
			WithArgs([]int64{4}).
			WillReturnRows(linkRows())
		mockPool.ExpectCommit()

		rec, err := repo.Update(context.Background(), userID, 4, types.RecipeParams{TagIDs: []int64{}})

		require.NoError(t, err)
		assert.Empty(t, rec.TagIDs)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Foreign", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		title := "Soup"

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE recipes SET title = $1")).
			WithArgs(title, int64(5), userID).
			WillReturnError(pgx.ErrNoRows)
		mockPool.ExpectRollback()

		_, err := repo.Update(context.Background(), userID, 5, types.RecipeParams{Title: &title})

		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresRepo_Delete(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()
	key := "uploads/recipe/a.jpg"

	mockPool.ExpectQuery(regexp.QuoteMeta("DELETE FROM recipes WHERE id = $1 AND user_id = $2 RETURNING image")).
		WithArgs(int64(3), userID).
		WillReturnRows(pgxmock.NewRows([]string{"image"}).AddRow(&key))
	mockPool.ExpectQuery(regexp.QuoteMeta("DELETE FROM recipes WHERE id = $1 AND user_id = $2 RETURNING image")).
		WithArgs(int64(4), userID).
		WillReturnError(pgx.ErrNoRows)

	image, err := repo.Delete(context.Background(), userID, 3)
	require.NoError(t, err)
	require.NotNil(t, image)
	assert.Equal(t, key, *image)

	_, err = repo.Delete(context.Background(), userID, 4)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresRepo_SetImage(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()
	old := "uploads/recipe/old.png"

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT image FROM recipes WHERE id = $1 AND user_id = $2 FOR UPDATE")).
		WithArgs(int64(2), userID).
		WillReturnRows(pgxmock.NewRows([]string{"image"}).AddRow(&old))
	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE recipes SET image = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs("uploads/recipe/new.jpg", int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	previous, err := repo.SetImage(context.Background(), userID, 2, "uploads/recipe/new.jpg")

	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.Equal(t, old, *previous)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresRepo_Labels(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM tags t")).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "user_id"}).AddRow(int64(1), "Vegan", userID))
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM ingredients t")).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "user_id"}))

	tags, ingredients, err := repo.Labels(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, []types.Label{{ID: 1, Name: "Vegan", UserID: userID}}, tags)
	assert.Empty(t, ingredients)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
