package container

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-recipe-api/app/db"
	"github.com/FACorreiaa/go-recipe-api/config"
	"github.com/FACorreiaa/go-recipe-api/internal/api/auth"
	"github.com/FACorreiaa/go-recipe-api/internal/api/recipe"
	"github.com/FACorreiaa/go-recipe-api/internal/api/taxonomy"
	"github.com/FACorreiaa/go-recipe-api/internal/api/user"
	"github.com/FACorreiaa/go-recipe-api/internal/router"
	"github.com/FACorreiaa/go-recipe-api/internal/storage"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *slog.Logger
	Pool              *pgxpool.Pool
	ConnectionURL     string
	Store             storage.ImageStore
	UserService       user.UserService
	AuthService       auth.AuthService
	AuthHandler       *auth.AuthHandler
	UserHandler       *user.HandlerImpl
	TagHandler        *taxonomy.HandlerImpl
	IngredientHandler *taxonomy.HandlerImpl
	RecipeHandler     *recipe.HandlerImpl
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("Failed to initialize image store", slog.Any("error", err))
		pool.Close()
		return nil, err
	}

	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewUserService(userRepo, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	tokenRepo := auth.NewPostgresTokenRepo(pool, logger)
	authService := auth.NewAuthService(tokenRepo, userService, cfg.Auth.TokenCacheTTL, logger)
	authHandler := auth.NewAuthHandler(authService, logger)

	taxonomyRepo := taxonomy.NewPostgresRepo(pool, logger)
	taxonomyService := taxonomy.NewService(taxonomyRepo, logger)
	tagHandler := taxonomy.NewHandlerImpl(taxonomyService, taxonomy.TagKind, logger)
	ingredientHandler := taxonomy.NewHandlerImpl(taxonomyService, taxonomy.IngredientKind, logger)

	recipeRepo := recipe.NewPostgresRepo(pool, logger)
	recipeService := recipe.NewService(recipeRepo, store, logger)
	recipeHandler := recipe.NewHandlerImpl(recipeService, logger)

	return &Container{
		Config:            cfg,
		Logger:            logger,
		Pool:              pool,
		ConnectionURL:     dbConfig.ConnectionURL,
		Store:             store,
		UserService:       userService,
		AuthService:       authService,
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		TagHandler:        tagHandler,
		IngredientHandler: ingredientHandler,
		RecipeHandler:     recipeHandler,
	}, nil
}

// RouterConfig wires the container's handlers into the router.
func (c *Container) RouterConfig() *router.Config {
	cfg := &router.Config{
		AuthHandler:            c.AuthHandler,
		UserHandler:            c.UserHandler,
		TagHandler:             c.TagHandler,
		IngredientHandler:      c.IngredientHandler,
		RecipeHandler:          c.RecipeHandler,
		AuthenticateMiddleware: auth.Authenticate(c.AuthService, c.Logger),
		HealthCheck: func(r *http.Request) error {
			return c.Pool.Ping(r.Context())
		},
		MediaURL:       c.Config.Storage.MediaURL,
		AllowedOrigins: c.Config.CORS.AllowedOrigins,
		TokenRateLimit: c.Config.Auth.TokenRateLimit,
	}
	if fs, ok := c.Store.(*storage.FileStore); ok {
		cfg.MediaHandler = fs.Handler()
	}
	return cfg
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations() error {
	return database.RunMigrations(c.ConnectionURL, c.Logger)
}
