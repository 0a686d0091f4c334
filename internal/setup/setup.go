package setup

import (
	"context"
	"fmt"

	"firestore-setup/internal/setup/adapter/persistence/cloudfirestore"
	"firestore-setup/internal/setup/adapter/persistence/memory"
	"firestore-setup/internal/setup/adapter/persistence/mongodb"
	"firestore-setup/internal/setup/config"
	"firestore-setup/internal/setup/domain/repository"
	"firestore-setup/internal/setup/usecase"
	"firestore-setup/internal/shared/errors"
	"firestore-setup/internal/shared/logger"
)

// SetupModule bundles the pieces of one initialization run.
type SetupModule struct {
	Config      *config.Config
	Writer      repository.DocumentWriter
	Initializer *usecase.Initializer
	Logger      logger.Logger
}

// NewSetupModule wires an Initializer around writer.
func NewSetupModule(cfg *config.Config, writer repository.DocumentWriter, reporter usecase.Reporter, log logger.Logger) *SetupModule {
	return &SetupModule{
		Config:      cfg,
		Writer:      writer,
		Initializer: usecase.NewInitializer(writer, reporter, log, cfg.Credentials.ProjectID),
		Logger:      log,
	}
}

// Run performs the placeholder writes.
func (m *SetupModule) Run(ctx context.Context) (*usecase.RunResult, error) {
	m.Logger.WithFields(map[string]interface{}{
		"project_id": m.Config.Credentials.ProjectID,
		"backend":    m.Config.Backend,
		"target":     m.Writer.Target(),
	}).Info("Starting database setup")
	return m.Initializer.Run(ctx)
}

// Stop releases the database client.
func (m *SetupModule) Stop() error {
	if err := m.Writer.Close(); err != nil {
		return fmt.Errorf("close %s: %w", m.Writer.Target(), err)
	}
	return nil
}

// NewDocumentWriter opens the writer for the configured backend.
func NewDocumentWriter(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.DocumentWriter, error) {
	switch cfg.Backend {
	case config.BackendFirestore:
		w, err := cloudfirestore.NewDocumentWriter(ctx, cfg.Credentials, log)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.BackendMongoDB:
		w, err := mongodb.NewDocumentWriter(ctx, cfg.MongoDB, cfg.Credentials, log)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.BackendMemory:
		return memory.NewDocumentWriter(), nil
	default:
		return nil, errors.NewConfigurationError("unsupported backend " + cfg.Backend).WithCause(errors.ErrUnsupportedBackend)
	}
}
