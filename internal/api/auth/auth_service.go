package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-recipe-api/app/observability/metrics"
	"github.com/FACorreiaa/go-recipe-api/internal/api"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

const (
	tokenBytes = 20

	// InvalidCredentialsMessage is returned for both unknown emails and wrong passwords.
	InvalidCredentialsMessage = "Unable to authenticate with provided credentials"
)

// CredentialChecker verifies an email/password pair. user.UserServiceImpl satisfies it.
type CredentialChecker interface {
	Authenticate(ctx context.Context, email, password string) (*types.User, error)
}

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	// IssueToken returns the caller's existing token or creates one.
	IssueToken(ctx context.Context, params types.TokenRequest) (*types.AuthToken, error)
	// ResolveToken maps a presented key to its active owner.
	ResolveToken(ctx context.Context, key string) (*types.User, error)
	// RevokeToken deletes the user's token; the next IssueToken mints a new key.
	RevokeToken(ctx context.Context, userID uuid.UUID) error
}

type AuthServiceImpl struct {
	logger      *slog.Logger
	repo        TokenRepo
	credentials CredentialChecker
	cache       *cache.Cache
}

// NewAuthService builds the token service. A cacheTTL of zero disables caching.
func NewAuthService(repo TokenRepo, credentials CredentialChecker, cacheTTL time.Duration, logger *slog.Logger) *AuthServiceImpl {
	s := &AuthServiceImpl{
		logger:      logger,
		repo:        repo,
		credentials: credentials,
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

func generateTokenKey() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueToken implements auth.AuthService.
func (s *AuthServiceImpl) IssueToken(ctx context.Context, params types.TokenRequest) (*types.AuthToken, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "IssueToken")
	defer span.End()

	l := s.logger.With(slog.String("method", "IssueToken"))

	if err := api.ValidateStruct(params); err != nil {
		span.SetStatus(codes.Error, "Invalid token request")
		return nil, err
	}

	u, err := s.credentials.Authenticate(ctx, params.Email, params.Password)
	if err != nil {
		if errors.Is(err, types.ErrUnauthenticated) {
			span.SetStatus(codes.Error, "Invalid credentials")
			return nil, types.NewValidationError(types.NonFieldErrors, InvalidCredentialsMessage)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Credential check failed")
		return nil, fmt.Errorf("error checking credentials: %w", err)
	}

	key, err := generateTokenKey()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Key generation failed")
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	token, err := s.repo.GetOrCreateToken(ctx, u.ID, key)
	if err != nil {
		l.ErrorContext(ctx, "Failed to store token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store token")
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	metrics.Get().TokensIssuedTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Token issued", slog.String("userID", u.ID.String()), slog.Bool("reused", token.Key != key))
	span.SetAttributes(attribute.String("user.id", u.ID.String()))
	span.SetStatus(codes.Ok, "Token issued")
	return token, nil
}

// ResolveToken implements auth.AuthService.
func (s *AuthServiceImpl) ResolveToken(ctx context.Context, key string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ResolveToken")
	defer span.End()

	if len(key) != 2*tokenBytes {
		span.SetStatus(codes.Error, "Malformed token")
		return nil, fmt.Errorf("malformed token: %w", types.ErrUnauthenticated)
	}

	// A cache hit still checks the token row; revocations from other processes apply at once.
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			active, err := s.repo.TokenActive(ctx, key)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "Token check failed")
				return nil, err
			}
			if !active {
				s.cache.Delete(key)
				span.SetStatus(codes.Error, "Token no longer valid")
				return nil, fmt.Errorf("revoked token: %w", types.ErrUnauthenticated)
			}
			span.SetStatus(codes.Ok, "Token resolved from cache")
			return cached.(*types.User), nil
		}
	}

	u, err := s.repo.GetUserByToken(ctx, key)
	if err != nil {
		if !errors.Is(err, types.ErrUnauthenticated) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "Token not resolved")
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetDefault(key, u)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	span.SetStatus(codes.Ok, "Token resolved")
	return u, nil
}

// RevokeToken implements auth.AuthService.
func (s *AuthServiceImpl) RevokeToken(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "RevokeToken", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	key, err := s.repo.DeleteToken(ctx, userID)
	if errors.Is(err, types.ErrNotFound) {
		span.SetStatus(codes.Ok, "No token to revoke")
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to revoke token")
		return fmt.Errorf("error revoking token: %w", err)
	}
	if s.cache != nil {
		s.cache.Delete(key)
	}

	s.logger.InfoContext(ctx, "Token revoked", slog.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "Token revoked")
	return nil
}
