package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/spf13/cobra"
)

const commandTimeout = 2 * time.Minute

var errMissingFlag = errors.New("required flag is empty")

// env holds what the commands need from the outside world.
type env struct {
	loadConfig   func(overrides *config.StructuredConfig) (*config.StructuredConfig, error)
	openStorages func(ctx context.Context, cfg config.Storage, log *logger.Logger) (*store.Storages, error)
	newAuth      func(storages *store.Storages, cfg *config.StructuredConfig, log *logger.Logger) service.AuthService
	log          *logger.Logger
}

func defaultEnv() env {
	return env{
		loadConfig:   config.GetCLIConfig,
		openStorages: store.NewStorages,
		newAuth: func(storages *store.Storages, cfg *config.StructuredConfig, log *logger.Logger) service.AuthService {
			return service.NewAuthService(storages.Users, storages.Revocations, utils.NewUUIDGenerator(), cfg.App, log)
		},
		log: logger.NewLogger("tourctl"),
	}
}

// globalFlags are shared by every command that touches the database.
type globalFlags struct {
	configPath string
	dsn        string
	dbName     string
}

func (f globalFlags) overrides() *config.StructuredConfig {
	cfg := &config.StructuredConfig{FilePath: f.configPath}
	cfg.Storage.DB.DSN = f.dsn
	cfg.Storage.DB.Name = f.dbName
	return cfg
}

func newRootCmd(e env) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:          "tourctl",
		Short:        "Operator tasks for the tour guide marketplace",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a JSON or YAML config file")
	root.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "database DSN (postgres:// or mongodb://)")
	root.PersistentFlags().StringVar(&flags.dbName, "db-name", "", "MongoDB database name")

	root.AddCommand(
		newMigrateCmd(e, &flags),
		newCreateAdminCmd(e, &flags),
		newVersionCmd(),
	)

	return root
}

func newMigrateCmd(e env, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations (PostgreSQL) or ensure indexes (MongoDB)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorages(cmd.Context(), e, flags, func(ctx context.Context, _ *config.StructuredConfig, storages *store.Storages) error {
				if err := storages.DB.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				e.log.Info().Msg("database is up to date")
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newCreateAdminCmd(e env, flags *globalFlags) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, f := range []struct{ flag, value string }{{"name", name}, {"email", email}, {"password", password}} {
				if f.value == "" {
					return fmt.Errorf("%w: --%s", errMissingFlag, f.flag)
				}
			}

			req := models.RegisterRequest{Name: name, Email: email, Password: password}
			if err := validators.NewRequestValidator(time.Now).Validate(cmd.Context(), req); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			return withStorages(cmd.Context(), e, flags, func(ctx context.Context, cfg *config.StructuredConfig, storages *store.Storages) error {
				admin, err := e.newAuth(storages, cfg, e.log).CreateAdmin(ctx, name, email, password)
				if err != nil {
					return fmt.Errorf("create admin: %w", err)
				}
				e.log.Info().Str("user_id", admin.ID).Msg("administrator created")
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %s\n", admin.Email, admin.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), models.NewAppBuildInfo(buildVersion, buildDate, buildCommit))
		},
	}
}

// withStorages loads the config, opens the storages and runs fn with them.
func withStorages(
	ctx context.Context,
	e env,
	flags *globalFlags,
	fn func(ctx context.Context, cfg *config.StructuredConfig, storages *store.Storages) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cfg, err := e.loadConfig(flags.overrides())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	storages, err := e.openStorages(ctx, cfg.Storage, e.log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if closeErr := storages.Close(ctx); closeErr != nil {
			e.log.Err(closeErr).Msg("error closing storages")
		}
	}()

	return fn(ctx, cfg, storages)
}
