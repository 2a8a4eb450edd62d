package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-recipe-api/internal/api/auth"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) ListRecipes(ctx context.Context, userID uuid.UUID, filter types.RecipeFilter) ([]types.RecipeResponse, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RecipeResponse), args.Error(1)
}

func (m *MockService) CreateRecipe(ctx context.Context, userID uuid.UUID, params types.RecipeParams) (*types.RecipeResponse, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockService) GetRecipe(ctx context.Context, userID uuid.UUID, id int64) (*types.RecipeDetailResponse, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeDetailResponse), args.Error(1)
}

func (m *MockService) ReplaceRecipe(ctx context.Context, userID uuid.UUID, id int64, params types.RecipeParams) (*types.RecipeResponse, error) {
	args := m.Called(ctx, userID, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockService) PatchRecipe(ctx context.Context, userID uuid.UUID, id int64, params types.RecipeParams) (*types.RecipeResponse, error) {
	args := m.Called(ctx, userID, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockService) DeleteRecipe(ctx context.Context, userID uuid.UUID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockService) UploadImage(ctx context.Context, userID uuid.UUID, id int64, upload types.ImageUpload) (*types.RecipeImageResponse, error) {
	args := m.Called(ctx, userID, id, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeImageResponse), args.Error(1)
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), &types.User{ID: userID}))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListHandler(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name   string
		query  string
		filter types.RecipeFilter
	}{
		{name: "All", query: "", filter: types.RecipeFilter{}},
		{name: "ByTags", query: "?tags=1,2", filter: types.RecipeFilter{TagIDs: []int64{1, 2}}},
		{name: "ByBoth", query: "?tags=1&ingredients=3", filter: types.RecipeFilter{TagIDs: []int64{1}, IngredientIDs: []int64{3}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockService)
			handler := NewHandlerImpl(mockService, slog.Default())
			mockService.On("ListRecipes", mock.Anything, userID, tc.filter).
				Return([]types.RecipeResponse{{ID: 1, Title: "Soup", Price: "5.00", Tags: []int64{}, Ingredients: []int64{}}}, nil).Once()

			req := withUser(httptest.NewRequest(http.MethodGet, "/recipes"+tc.query, nil), userID)
			w := httptest.NewRecorder()

			handler.List(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `[{"id":1,"title":"Soup","ingredients":[],"price":"5.00","time_minutes":0,"tags":[],"link":""}]`, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}

	for _, query := range []string{"?tags=1,x", "?tags=1,,2", "?ingredients=,"} {
		t.Run("Malformed"+query, func(t *testing.T) {
			mockService := new(MockService)
			handler := NewHandlerImpl(mockService, slog.Default())
			req := withUser(httptest.NewRequest(http.MethodGet, "/recipes"+query, nil), userID)
			w := httptest.NewRecorder()

			handler.List(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mockService.AssertNotCalled(t, "ListRecipes", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("Unauthenticated", func(t *testing.T) {
		handler := NewHandlerImpl(new(MockService), slog.Default())
		w := httptest.NewRecorder()

		handler.List(w, httptest.NewRequest(http.MethodGet, "/recipes", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCreateHandler(t *testing.T) {
	userID := uuid.New()
	mockService := new(MockService)
	handler := NewHandlerImpl(mockService, slog.Default())

	t.Run("Created", func(t *testing.T) {
		mockService.On("CreateRecipe", mock.Anything, userID, mock.MatchedBy(func(p types.RecipeParams) bool {
			return *p.Title == "Cake" && p.Price.Equal(decimal.RequireFromString("5")) && len(p.TagIDs) == 1
		})).Return(&types.RecipeResponse{ID: 3, Title: "Cake", Price: "5.00", TimeMinutes: 10, Tags: []int64{2}, Ingredients: []int64{}}, nil).Once()

		body := `{"title":"Cake","time_minutes":10,"price":"5.00","tags":[2]}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/recipes", bytes.NewBufferString(body)), userID)
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp types.RecipeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(3), resp.ID)
		assert.Equal(t, []int64{2}, resp.Tags)
	})

	t.Run("ReadOnlyFieldsIgnored", func(t *testing.T) {
		mockService.On("CreateRecipe", mock.Anything, userID, mock.MatchedBy(func(p types.RecipeParams) bool {
			return *p.Title == "x" && *p.TimeMinutes == 5
		})).Return(&types.RecipeResponse{ID: 4, Title: "x", Price: "5.00", TimeMinutes: 5, Tags: []int64{}, Ingredients: []int64{}}, nil).Once()

		body := `{"title":"x","time_minutes":5,"price":"5.00","user":999,"id":77}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/recipes", bytes.NewBufferString(body)), userID)
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp types.RecipeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(4), resp.ID)
	})

	t.Run("UnknownTag", func(t *testing.T) {
		mockService.On("CreateRecipe", mock.Anything, userID, mock.Anything).
			Return(nil, types.NewValidationError("tags", `Invalid pk "9" - object does not exist.`)).Once()

		body := `{"title":"Cake","time_minutes":10,"price":5,"tags":[9]}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/recipes", bytes.NewBufferString(body)), userID)
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp map[string][]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{`Invalid pk "9" - object does not exist.`}, resp["tags"])
	})

	t.Run("BadJSON", func(t *testing.T) {
		req := withUser(httptest.NewRequest(http.MethodPost, "/recipes", bytes.NewBufferString(`{"title":`)), userID)
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDetailHandlers(t *testing.T) {
	userID := uuid.New()
	mockService := new(MockService)
	handler := NewHandlerImpl(mockService, slog.Default())

	t.Run("Get", func(t *testing.T) {
		mockService.On("GetRecipe", mock.Anything, userID, int64(2)).Return(&types.RecipeDetailResponse{
			ID: 2, Title: "Curry", Price: "7.00", Tags: []types.Label{{ID: 1, Name: "Vegan"}}, Ingredients: []types.Label{},
		}, nil).Once()

		req := withID(withUser(httptest.NewRequest(http.MethodGet, "/recipes/2", nil), userID), "2")
		w := httptest.NewRecorder()

		handler.Get(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":2,"title":"Curry","ingredients":[],"price":"7.00","time_minutes":0,"tags":[{"id":1,"name":"Vegan"}],"link":"","image":null}`, w.Body.String())
	})

	t.Run("GetForeign", func(t *testing.T) {
		mockService.On("GetRecipe", mock.Anything, userID, int64(5)).Return(nil, types.ErrNotFound).Once()

		req := withID(withUser(httptest.NewRequest(http.MethodGet, "/recipes/5", nil), userID), "5")
		w := httptest.NewRecorder()

		handler.Get(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Put", func(t *testing.T) {
		mockService.On("ReplaceRecipe", mock.Anything, userID, int64(2), mock.Anything).
			Return(&types.RecipeResponse{ID: 2, Tags: []int64{}, Ingredients: []int64{}}, nil).Once()

		body := `{"title":"Curry","time_minutes":30,"price":"7.00"}`
		req := withID(withUser(httptest.NewRequest(http.MethodPut, "/recipes/2", bytes.NewBufferString(body)), userID), "2")
		w := httptest.NewRecorder()

		handler.Update(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("PutEchoedRepresentation", func(t *testing.T) {
		mockService.On("ReplaceRecipe", mock.Anything, userID, int64(2), mock.MatchedBy(func(p types.RecipeParams) bool {
			return *p.Title == "Curry" && len(p.TagIDs) == 1 && p.TagIDs[0] == 1
		})).Return(&types.RecipeResponse{ID: 2, Tags: []int64{1}, Ingredients: []int64{}}, nil).Once()

		body := `{"id":2,"user":"someone","title":"Curry","time_minutes":30,"price":"7.00","link":"","tags":[1],"ingredients":[],"image":null}`
		req := withID(withUser(httptest.NewRequest(http.MethodPut, "/recipes/2", bytes.NewBufferString(body)), userID), "2")
		w := httptest.NewRecorder()

		handler.Update(w, req)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("Patch", func(t *testing.T) {
		mockService.On("PatchRecipe", mock.Anything, userID, int64(2), mock.MatchedBy(func(p types.RecipeParams) bool {
			return p.Title != nil && p.TagIDs == nil && p.Price == nil
		})).Return(&types.RecipeResponse{ID: 2, Title: "Chicken curry", Tags: []int64{1}, Ingredients: []int64{}}, nil).Once()

		req := withID(withUser(httptest.NewRequest(http.MethodPatch, "/recipes/2", bytes.NewBufferString(`{"title":"Chicken curry"}`)), userID), "2")
		w := httptest.NewRecorder()

		handler.Patch(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		mockService.On("DeleteRecipe", mock.Anything, userID, int64(2)).Return(nil).Once()

		req := withID(withUser(httptest.NewRequest(http.MethodDelete, "/recipes/2", nil), userID), "2")
		w := httptest.NewRecorder()

		handler.Delete(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockService.AssertExpectations(t)
	})
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "value"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadImageHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("Uploaded", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewHandlerImpl(mockService, slog.Default())
		data := pngBytes(t)
		url := "/media/uploads/recipe/x.png"
		mockService.On("UploadImage", mock.Anything, userID, int64(1), mock.MatchedBy(func(u types.ImageUpload) bool {
			return u.Filename == "photo.png" && bytes.Equal(u.Data, data)
		})).Return(&types.RecipeImageResponse{ID: 1, Image: &url}, nil).Once()

		body, contentType := multipartBody(t, "image", "photo.png", data)
		req := withID(withUser(httptest.NewRequest(http.MethodPost, "/recipes/1/upload-image", body), userID), "1")
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.UploadImage(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"image":"/media/uploads/recipe/x.png"}`, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("MissingField", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewHandlerImpl(mockService, slog.Default())

		body, contentType := multipartBody(t, "", "", nil)
		req := withID(withUser(httptest.NewRequest(http.MethodPost, "/recipes/1/upload-image", body), userID), "1")
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.UploadImage(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp map[string][]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp, "image")
		mockService.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotAnImage", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewHandlerImpl(mockService, slog.Default())
		mockService.On("UploadImage", mock.Anything, userID, int64(1), mock.Anything).
			Return(nil, types.NewValidationError("image", invalidImageMessage)).Once()

		body, contentType := multipartBody(t, "image", "notes.txt", []byte("plain text"))
		req := withID(withUser(httptest.NewRequest(http.MethodPost, "/recipes/1/upload-image", body), userID), "1")
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.UploadImage(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
