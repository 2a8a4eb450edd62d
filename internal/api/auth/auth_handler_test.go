package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

// MockAuthService is a mock implementation of the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) IssueToken(ctx context.Context, params types.TokenRequest) (*types.AuthToken, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AuthToken), args.Error(1)
}

func (m *MockAuthService) ResolveToken(ctx context.Context, key string) (*types.User, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthService) RevokeToken(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func TestCreateTokenHandler(t *testing.T) {
	mockService := new(MockAuthService)
	handler := NewAuthHandler(mockService, slog.Default())

	t.Run("Success", func(t *testing.T) {
		params := types.TokenRequest{Email: "test@example.com", Password: "testpass"}
		body, _ := json.Marshal(params)
		req := httptest.NewRequest(http.MethodPost, "/users/token", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		mockService.On("IssueToken", mock.Anything, params).
			Return(&types.AuthToken{Key: testKey}, nil).Once()

		handler.CreateToken(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, testKey, resp["token"])
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		params := types.TokenRequest{Email: "test@example.com", Password: "wrong"}
		body, _ := json.Marshal(params)
		req := httptest.NewRequest(http.MethodPost, "/users/token", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		mockService.On("IssueToken", mock.Anything, params).
			Return(nil, types.NewValidationError(types.NonFieldErrors, InvalidCredentialsMessage)).Once()

		handler.CreateToken(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp map[string][]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{InvalidCredentialsMessage}, resp["non_field_errors"])
		assert.NotContains(t, w.Body.String(), "token\"")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/token", bytes.NewBufferString(`{"email":`))
		w := httptest.NewRecorder()

		handler.CreateToken(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("InternalServerError", func(t *testing.T) {
		params := types.TokenRequest{Email: "test@example.com", Password: "testpass"}
		body, _ := json.Marshal(params)
		req := httptest.NewRequest(http.MethodPost, "/users/token", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		mockService.On("IssueToken", mock.Anything, params).Return(nil, errors.New("db down")).Once()

		handler.CreateToken(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	mockService := new(MockAuthService)
	handler := NewAuthHandler(mockService, slog.Default())
	user := &types.User{ID: uuid.New()}

	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/logout", nil)
		req = req.WithContext(WithUser(req.Context(), user))
		w := httptest.NewRecorder()

		mockService.On("RevokeToken", mock.Anything, user.ID).Return(nil).Once()

		handler.Logout(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/logout", nil)
		w := httptest.NewRecorder()

		handler.Logout(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthenticateMiddleware(t *testing.T) {
	user := &types.User{ID: uuid.New(), Email: "test@example.com", IsActive: true}

	var seen *types.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		setup      func(m *MockAuthService)
		wantStatus int
		wantUser   bool
	}{
		{
			name:   "TokenScheme",
			header: "Token " + testKey,
			setup: func(m *MockAuthService) {
				m.On("ResolveToken", mock.Anything, testKey).Return(user, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name:   "BearerScheme",
			header: "Bearer " + testKey,
			setup: func(m *MockAuthService) {
				m.On("ResolveToken", mock.Anything, testKey).Return(user, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name:       "MissingHeader",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "UnknownScheme",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "SchemeOnly",
			header:     "Token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "UnknownKey",
			header: "Token " + testKey,
			setup: func(m *MockAuthService) {
				m.On("ResolveToken", mock.Anything, testKey).Return(nil, types.ErrUnauthenticated).Once()
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			mockService := new(MockAuthService)
			if tc.setup != nil {
				tc.setup(mockService)
			}

			req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			Authenticate(mockService, slog.Default())(next).ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantUser {
				require.NotNil(t, seen)
				assert.Equal(t, user.ID, seen.ID)
			} else {
				assert.Nil(t, seen)
			}
			mockService.AssertExpectations(t)
		})
	}
}
