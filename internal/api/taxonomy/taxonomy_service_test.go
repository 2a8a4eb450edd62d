package taxonomy

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

// MockRepo is a mock implementation of the Repo interface
type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) List(ctx context.Context, kind Kind, userID uuid.UUID, filter types.LabelFilter) ([]types.Label, error) {
	args := m.Called(ctx, kind, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Label), args.Error(1)
}

func (m *MockRepo) Create(ctx context.Context, kind Kind, userID uuid.UUID, name string) (*types.Label, error) {
	args := m.Called(ctx, kind, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Label), args.Error(1)
}

func (m *MockRepo) Get(ctx context.Context, kind Kind, userID uuid.UUID, id int64) (*types.Label, error) {
	args := m.Called(ctx, kind, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Label), args.Error(1)
}

func (m *MockRepo) Update(ctx context.Context, kind Kind, userID uuid.UUID, id int64, name string) (*types.Label, error) {
	args := m.Called(ctx, kind, userID, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Label), args.Error(1)
}

func (m *MockRepo) Delete(ctx context.Context, kind Kind, userID uuid.UUID, id int64) error {
	args := m.Called(ctx, kind, userID, id)
	return args.Error(0)
}

func TestCreateLabel(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepo)
		service := NewService(repo, slog.Default())
		repo.On("Create", mock.Anything, TagKind, userID, "Vegan").
			Return(&types.Label{ID: 1, Name: "Vegan", UserID: userID}, nil).Once()

		label, err := service.CreateLabel(ctx, TagKind, userID, types.LabelParams{Name: " Vegan "})

		require.NoError(t, err)
		assert.Equal(t, "Vegan", label.Name)
		repo.AssertExpectations(t)
	})

	t.Run("EmptyName", func(t *testing.T) {
		repo := new(MockRepo)
		service := NewService(repo, slog.Default())

		_, err := service.CreateLabel(ctx, IngredientKind, userID, types.LabelParams{Name: ""})

		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"This field is required."}, verr.Fields["name"])
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NameTooLong", func(t *testing.T) {
		repo := new(MockRepo)
		service := NewService(repo, slog.Default())

		_, err := service.CreateLabel(ctx, TagKind, userID, types.LabelParams{Name: strings.Repeat("x", 256)})

		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "name")
	})
}

func TestListLabels(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	repo := new(MockRepo)
	service := NewService(repo, slog.Default())

	filter := types.LabelFilter{AssignedOnly: true}
	repo.On("List", mock.Anything, IngredientKind, userID, filter).
		Return([]types.Label{{ID: 2, Name: "Salt"}}, nil).Once()
	repo.On("List", mock.Anything, TagKind, userID, types.LabelFilter{}).
		Return(nil, errors.New("db down")).Once()

	labels, err := service.ListLabels(ctx, IngredientKind, userID, filter)
	require.NoError(t, err)
	assert.Len(t, labels, 1)

	_, err = service.ListLabels(ctx, TagKind, userID, types.LabelFilter{})
	assert.Error(t, err)
}

func TestUpdateAndDeleteLabel(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	repo := new(MockRepo)
	service := NewService(repo, slog.Default())

	repo.On("Update", mock.Anything, TagKind, userID, int64(9), "Dinner").
		Return(nil, types.ErrNotFound).Once()
	repo.On("Delete", mock.Anything, TagKind, userID, int64(9)).
		Return(types.ErrNotFound).Once()

	_, err := service.UpdateLabel(ctx, TagKind, userID, 9, types.LabelParams{Name: "Dinner"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.ErrorIs(t, service.DeleteLabel(ctx, TagKind, userID, 9), types.ErrNotFound)
}
