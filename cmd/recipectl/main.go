package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	database "github.com/FACorreiaa/go-recipe-api/app/db"
	"github.com/FACorreiaa/go-recipe-api/config"
	"github.com/FACorreiaa/go-recipe-api/internal/api/user"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type env struct {
	logger *slog.Logger
	cfg    config.Config
	dbURL  string
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	var verbose bool
	e := &env{}

	cmd := &cobra.Command{
		Use:           "recipectl",
		Short:         "Administrative tasks for the recipe API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			e.logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.Kitchen}))

			cfg, err := config.InitConfig()
			if err != nil {
				return err
			}
			e.cfg = cfg
			dbConfig, err := database.NewDatabaseConfig(&cfg, e.logger)
			if err != nil {
				return err
			}
			e.dbURL = dbConfig.ConnectionURL
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(newMigrateCommand(e, stdout))
	cmd.AddCommand(newCreateSuperuserCommand(e, stdout))
	cmd.AddCommand(newDeleteUserCommand(e, stdout))
	return cmd
}

func newMigrateCommand(e *env, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.RunMigrations(e.dbURL, e.logger); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Migrations applied.")
			return nil
		},
	}
}

func (e *env) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := database.Init(e.dbURL, e.logger)
	if err != nil {
		return nil, err
	}
	if !database.WaitForDB(ctx, pool, e.logger) {
		pool.Close()
		return nil, errors.New("database not reachable")
	}
	return pool, nil
}

func newCreateSuperuserCommand(e *env, stdout io.Writer) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff user with all permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if password == "" {
				password = os.Getenv("RECIPECTL_PASSWORD")
			}

			pool, err := e.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			service := user.NewUserService(user.NewPostgresUserRepo(pool, e.logger), e.logger)
			u, err := service.CreateSuperuser(ctx, email, password, name)
			if err != nil {
				var verr *types.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("invalid input: %s", verr.Error())
				}
				return err
			}
			fmt.Fprintf(stdout, "Superuser %s created.\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (login)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (defaults to $RECIPECTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newDeleteUserCommand(e *env, stdout io.Writer) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "deleteuser",
		Short: "Delete a user together with their recipes, tags and ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			pool, err := e.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := user.NewPostgresUserRepo(pool, e.logger)
			u, err := repo.GetUserByEmail(ctx, user.NormalizeEmail(email))
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return fmt.Errorf("no user with email %q", email)
				}
				return err
			}
			if err := user.NewUserService(repo, e.logger).DeleteUser(ctx, u.ID); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "User %s deleted.\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the user")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
