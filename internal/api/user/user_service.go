package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-recipe-api/app/observability/metrics"
	"github.com/FACorreiaa/go-recipe-api/internal/api"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

const minPasswordLength = 5

var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for user operations.
type UserService interface {
	Register(ctx context.Context, params types.RegisterParams) (*types.User, error)
	// Authenticate returns types.ErrUnauthenticated for every failed check.
	Authenticate(ctx context.Context, email, password string) (*types.User, error)
	// CreateSuperuser provisions a staff superuser without the password length check.
	CreateSuperuser(ctx context.Context, email, password, name string) (*types.User, error)
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl provides the implementation for UserService.
type UserServiceImpl struct {
	logger     *slog.Logger
	repo       UserRepo
	bcryptCost int
	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return newUserService(repo, logger, bcrypt.DefaultCost)
}

func newUserService(repo UserRepo, logger *slog.Logger, cost int) *UserServiceImpl {
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("generating dummy bcrypt hash: %v", err))
	}
	return &UserServiceImpl{
		logger:     logger,
		repo:       repo,
		bcryptCost: cost,
		dummyHash:  dummy,
	}
}

// NormalizeEmail lower-cases the whole address, local part included, so two
// registrations differing only by case collide.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserServiceImpl) hashPassword(field, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", types.NewValidationError(field, "Ensure this field has no more than 72 bytes.")
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Register creates an ordinary, unprivileged user.
func (s *UserServiceImpl) Register(ctx context.Context, params types.RegisterParams) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Register")
	defer span.End()

	start := time.Now()
	l := s.logger.With(slog.String("method", "Register"))

	if err := api.ValidateStruct(params); err != nil {
		span.SetStatus(codes.Error, "Invalid registration payload")
		return nil, err
	}

	hash, err := s.hashPassword("password", params.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return nil, err
	}

	u, err := s.repo.CreateUser(ctx, types.NewUserParams{
		Email:        NormalizeEmail(params.Email),
		Name:         params.Name,
		PasswordHash: hash,
	})
	outcome := "success"
	defer func() {
		m := metrics.Get()
		m.RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		m.RegisterDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		if errors.Is(err, types.ErrConflict) {
			span.SetStatus(codes.Error, "Email already registered")
			return nil, types.NewValidationError("email", "user with this email already exists.")
		}
		l.ErrorContext(ctx, "Failed to register user", slog.Any("error", err))
		span.SetStatus(codes.Error, "Failed to register user")
		return nil, fmt.Errorf("error registering user: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", u.ID.String()))
	span.SetStatus(codes.Ok, "User registered")
	return u, nil
}

// Authenticate verifies credentials against an active user.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Authenticate")
	defer span.End()

	l := s.logger.With(slog.String("method", "Authenticate"))

	fail := func(reason string) (*types.User, error) {
		l.InfoContext(ctx, "Credential check failed", slog.String("reason", reason))
		metrics.Get().AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		span.SetStatus(codes.Error, "Invalid credentials")
		return nil, types.ErrUnauthenticated
	}

	if email == "" || password == "" {
		return fail("missing_credentials")
	}

	u, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return fail("unknown_email")
		}
		l.ErrorContext(ctx, "Failed to load user for authentication", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "User lookup failed")
		return nil, fmt.Errorf("error authenticating user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return fail("bad_password")
	}
	if !u.IsActive {
		return fail("inactive")
	}

	if err := s.repo.UpdateLastLogin(ctx, u.ID); err != nil {
		l.WarnContext(ctx, "Failed to record last login", slog.Any("error", err))
	}

	span.SetAttributes(attribute.String("user.id", u.ID.String()))
	span.SetStatus(codes.Ok, "Authenticated")
	return u, nil
}

// CreateSuperuser provisions a privileged user from the admin path.
func (s *UserServiceImpl) CreateSuperuser(ctx context.Context, email, password, name string) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "CreateSuperuser")
	defer span.End()

	verr := &types.ValidationError{}
	if err := api.Validator().Var(email, "required,email,max=255"); err != nil {
		verr.Add("email", "Enter a valid email address.")
	}
	if password == "" {
		verr.Add("password", "This field is required.")
	}
	if verr.HasErrors() {
		span.SetStatus(codes.Error, "Invalid superuser payload")
		return nil, verr
	}

	hash, err := s.hashPassword("password", password)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	u, err := s.repo.CreateUser(ctx, types.NewUserParams{
		Email:        NormalizeEmail(email),
		Name:         name,
		PasswordHash: hash,
		IsStaff:      true,
		IsSuperuser:  true,
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrConflict) {
			span.SetStatus(codes.Error, "Email already registered")
			return nil, types.NewValidationError("email", "user with this email already exists.")
		}
		span.SetStatus(codes.Error, "Failed to create superuser")
		return nil, fmt.Errorf("error creating superuser: %w", err)
	}

	s.logger.InfoContext(ctx, "Superuser created", slog.String("userID", u.ID.String()))
	span.SetStatus(codes.Ok, "Superuser created")
	return u, nil
}

// GetUserProfile returns the user behind the current token.
func (s *UserServiceImpl) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "GetUserProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch user profile")
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}
	span.SetStatus(codes.Ok, "User profile fetched")
	return u, nil
}

// UpdateUserProfile applies a partial update; a new password is re-validated and re-hashed.
func (s *UserServiceImpl) UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateUserProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateUserProfile"), slog.String("userID", userID.String()))

	verr := &types.ValidationError{}
	var upd UserUpdate
	if params.Email != nil {
		email := NormalizeEmail(*params.Email)
		if err := api.Validator().Var(email, "required,email,max=255"); err != nil {
			verr.Add("email", "Enter a valid email address.")
		}
		upd.Email = &email
	}
	if params.Name != nil {
		if len(*params.Name) > 255 {
			verr.Add("name", "Ensure this field has no more than 255 characters.")
		}
		upd.Name = params.Name
	}
	if params.Password != nil {
		if len(*params.Password) < minPasswordLength {
			verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
		} else {
			hash, err := s.hashPassword("password", *params.Password)
			if err != nil {
				return nil, err
			}
			upd.PasswordHash = &hash
		}
	}
	if verr.HasErrors() {
		span.SetStatus(codes.Error, "Invalid profile update")
		return nil, verr
	}

	u, err := s.repo.UpdateUser(ctx, userID, upd)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrConflict) {
			span.SetStatus(codes.Error, "Email already registered")
			return nil, types.NewValidationError("email", "user with this email already exists.")
		}
		l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
		span.SetStatus(codes.Error, "Failed to update user profile")
		return nil, fmt.Errorf("error updating user profile: %w", err)
	}

	l.InfoContext(ctx, "User profile updated")
	span.SetStatus(codes.Ok, "User profile updated")
	return u, nil
}

// DeleteUser removes the user and, through cascades, everything they own.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("UserService").Start(ctx, "DeleteUser", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete user")
		return fmt.Errorf("error deleting user: %w", err)
	}
	span.SetStatus(codes.Ok, "User deleted")
	return nil
}
