package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"firestore-setup/internal/di"
	"firestore-setup/internal/setup/adapter/console"
	"firestore-setup/internal/setup/config"
	"firestore-setup/internal/setup/usecase"
	"firestore-setup/internal/shared/logger"

	"github.com/spf13/cobra"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr, nil, nil))
}

// execute runs the command and maps the outcome to an exit code. Errors that
// escape the write sequence, and panics, are reported here as fatal.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, log logger.Logger, newWriter di.WriterFactory) (code int) {
	reporter := console.NewReporter(stdout, stderr)

	defer func() {
		if r := recover(); r != nil {
			_ = reporter.Fatal(fmt.Errorf("panic: %v", r))
			code = exitFailure
		}
	}()

	cmd := newRootCommand(reporter, log, newWriter)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var writeErr *usecase.WriteError
		if !errors.As(err, &writeErr) {
			_ = reporter.Fatal(err)
		}
		return exitFailure
	}
	return exitSuccess
}

func newRootCommand(reporter usecase.Reporter, log logger.Logger, newWriter di.WriterFactory) *cobra.Command {
	var (
		envFile   string
		overrides config.Overrides
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "firestore-setup",
		Short: "Create the placeholder documents of the expected Firestore collections",
		Long: "Writes a _placeholder document into the users, vaults, files and shared\n" +
			"collections so they exist before the application stores real data.\n" +
			"Running it again overwrites the placeholders.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dryRun {
				overrides.Backend = config.BackendMemory
			}

			container := di.NewContainer()
			if err := container.Initialize(cmd.Context(), di.Options{
				EnvFile:   envFile,
				Overrides: overrides,
				Reporter:  reporter,
				Logger:    log,
				NewWriter: newWriter,
			}); err != nil {
				return err
			}
			defer func() {
				if err := container.Close(); err != nil {
					container.Logger.WithError(err).Warn("Failed to close database client")
				}
			}()

			_, err := container.SetupModule.Run(cmd.Context())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", ".env", "environment file to load before reading configuration")
	flags.StringVar(&overrides.ProjectID, "project", "", "project ID (overrides "+config.ProjectIDEnv+")")
	flags.StringVar(&overrides.CredentialsFile, "credentials", "", "service account key file (overrides FIREBASE_SERVICE_ACCOUNT_KEY)")
	flags.StringVar(&overrides.Backend, "backend", "", "firestore or mongodb (overrides SETUP_BACKEND)")
	flags.BoolVar(&dryRun, "dry-run", false, "write to memory only and print what would be created")

	return cmd
}
