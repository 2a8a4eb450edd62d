package auth

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

var _ TokenRepo = (*PostgresTokenRepo)(nil)

// TokenRepo persists the one-per-user API tokens.
type TokenRepo interface {
	// GetOrCreateToken stores candidateKey for the user unless a token already
	// exists, and returns whichever token is stored afterwards.
	GetOrCreateToken(ctx context.Context, userID uuid.UUID, candidateKey string) (*types.AuthToken, error)
	// GetUserByToken resolves a key to its active owner.
	GetUserByToken(ctx context.Context, key string) (*types.User, error)
	// TokenActive reports whether the key still exists and its owner is active.
	TokenActive(ctx context.Context, key string) (bool, error)
	// DeleteToken removes the user's token and returns the revoked key.
	DeleteToken(ctx context.Context, userID uuid.UUID) (string, error)
}

type PostgresTokenRepo struct {
	logger *slog.Logger
	pgpool database.DB
}

func NewPostgresTokenRepo(pgxpool database.DB, logger *slog.Logger) *PostgresTokenRepo {
	return &PostgresTokenRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

// GetOrCreateToken implements auth.TokenRepo.
func (r *PostgresTokenRepo) GetOrCreateToken(ctx context.Context, userID uuid.UUID, candidateKey string) (*types.AuthToken, error) {
	ctx, span := otel.Tracer("TokenRepo").Start(ctx, "GetOrCreateToken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "auth_tokens"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetOrCreateToken"), slog.String("userID", userID.String()))

	// Two statements so the select sees a row committed by a concurrent insert.
	tag, err := r.pgpool.Exec(ctx,
		`INSERT INTO auth_tokens (key, user_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		candidateKey, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to insert token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error storing token: %w", err)
	}
	span.SetAttributes(attribute.Bool("token.created", tag.RowsAffected() == 1))

	var token types.AuthToken
	err = pgxscan.Get(ctx, r.pgpool, &token,
		`SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = $1`, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error loading token: %w", err)
	}

	span.SetStatus(codes.Ok, "Token ready")
	return &token, nil
}

// GetUserByToken implements auth.TokenRepo.
func (r *PostgresTokenRepo) GetUserByToken(ctx context.Context, key string) (*types.User, error) {
	ctx, span := otel.Tracer("TokenRepo").Start(ctx, "GetUserByToken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "auth_tokens"),
	))
	defer span.End()

	query := `
        SELECT u.id, u.email, u.name, u.password_hash, u.is_active, u.is_staff, u.is_superuser,
               u.last_login_at, u.created_at, u.updated_at
        FROM auth_tokens t
        JOIN users u ON u.id = t.user_id
        WHERE t.key = $1 AND u.is_active`

	var u types.User
	if err := pgxscan.Get(ctx, r.pgpool, &u, query, key); err != nil {
		if pgxscan.NotFound(err) {
			span.SetStatus(codes.Error, "Token not found")
			return nil, fmt.Errorf("unknown token: %w", types.ErrUnauthenticated)
		}
		r.logger.ErrorContext(ctx, "Failed to resolve token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error resolving token: %w", err)
	}

	span.SetStatus(codes.Ok, "Token resolved")
	return &u, nil
}

// TokenActive implements auth.TokenRepo.
func (r *PostgresTokenRepo) TokenActive(ctx context.Context, key string) (bool, error) {
	ctx, span := otel.Tracer("TokenRepo").Start(ctx, "TokenActive", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "auth_tokens"),
	))
	defer span.End()

	var active bool
	err := r.pgpool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM auth_tokens t
            JOIN users u ON u.id = t.user_id
            WHERE t.key = $1 AND u.is_active
        )`, key).Scan(&active)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return false, fmt.Errorf("database error checking token: %w", err)
	}

	span.SetAttributes(attribute.Bool("token.active", active))
	span.SetStatus(codes.Ok, "Token checked")
	return active, nil
}

// DeleteToken implements auth.TokenRepo.
func (r *PostgresTokenRepo) DeleteToken(ctx context.Context, userID uuid.UUID) (string, error) {
	ctx, span := otel.Tracer("TokenRepo").Start(ctx, "DeleteToken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "auth_tokens"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	var key string
	err := r.pgpool.QueryRow(ctx, `DELETE FROM auth_tokens WHERE user_id = $1 RETURNING key`, userID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Token not found")
			return "", fmt.Errorf("no token for user: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to delete token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return "", fmt.Errorf("database error deleting token: %w", err)
	}

	span.SetStatus(codes.Ok, "Token deleted")
	return key, nil
}
