package di

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"firestore-setup/internal/setup"
	"firestore-setup/internal/setup/config"
	"firestore-setup/internal/setup/domain/repository"
	"firestore-setup/internal/setup/usecase"
	"firestore-setup/internal/shared/logger"
)

var newLogger = logger.NewLogger

// WriterFactory opens the DocumentWriter for a configuration.
type WriterFactory func(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.DocumentWriter, error)

// Options controls how the container is initialized.
type Options struct {
	EnvFile   string
	Overrides config.Overrides
	Reporter  usecase.Reporter
	Logger    logger.Logger
	// NewWriter defaults to setup.NewDocumentWriter.
	NewWriter WriterFactory
}

// Container owns the configuration, the database client and the setup
// module for the lifetime of one run.
type Container struct {
	mu          sync.Mutex
	Config      *config.Config
	Logger      logger.Logger
	SetupModule *setup.SetupModule
}

// NewContainer creates an empty container
func NewContainer() *Container {
	return &Container{}
}

// Initialize loads the env file and configuration, opens the database
// client and wires the setup module. Nothing is left open on error.
func (c *Container) Initialize(ctx context.Context, opts Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SetupModule != nil {
		return fmt.Errorf("container already initialized")
	}

	if opts.NewWriter == nil {
		opts.NewWriter = setup.NewDocumentWriter
	}
	if opts.Reporter == nil {
		return fmt.Errorf("reporter is required")
	}

	// The default logger reads LOG_LEVEL and friends, which may come from the env file.
	envErr := config.LoadEnvFile(opts.EnvFile)
	if opts.Logger == nil {
		opts.Logger = newLogger()
	}
	c.Logger = opts.Logger

	if envErr != nil {
		if !errors.Is(envErr, os.ErrNotExist) {
			return envErr
		}
		c.Logger.Warnf("Could not load env file: %v", envErr)
	}

	cfg, err := config.LoadConfig(opts.Overrides)
	if err != nil {
		return err
	}
	c.Config = cfg

	writer, err := opts.NewWriter(ctx, cfg, c.Logger)
	if err != nil {
		return err
	}

	c.SetupModule = setup.NewSetupModule(cfg, writer, opts.Reporter, c.Logger)
	c.Logger.Info("Setup module initialized successfully")
	return nil
}

// Close releases the database client
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SetupModule == nil {
		return nil
	}
	err := c.SetupModule.Stop()
	c.SetupModule = nil
	return err
}
