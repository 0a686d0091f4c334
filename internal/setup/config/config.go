package config

import (
	"fmt"
	"os"

	"firestore-setup/internal/shared/errors"
	"firestore-setup/internal/shared/firestore"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Supported backends.
const (
	BackendFirestore = "firestore"
	BackendMongoDB   = "mongodb"
	// BackendMemory writes nothing; used for dry runs.
	BackendMemory = "memory"
)

// ProjectIDEnv is the variable that names the target project.
const ProjectIDEnv = "PUBLIC_FIREBASE_PROJECT_ID"

// EmulatorHostEnv points the Firestore client at a local emulator.
const EmulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// Credentials identifies the project and how to authenticate against it.
// An empty KeyFile means Application Default Credentials.
type Credentials struct {
	ProjectID    string `env:"PUBLIC_FIREBASE_PROJECT_ID" json:"project_id"`
	DatabaseID   string `env:"FIREBASE_DATABASE_ID" envDefault:"(default)" json:"database_id"`
	KeyFile      string `env:"FIREBASE_SERVICE_ACCOUNT_KEY" json:"key_file,omitempty"`
	EmulatorHost string `env:"FIRESTORE_EMULATOR_HOST" json:"emulator_host,omitempty"`
}

// UsesKeyFile reports whether an explicit service-account key is configured.
func (c Credentials) UsesKeyFile() bool {
	return c.KeyFile != ""
}

// UsesEmulator reports whether the Firestore client talks to an emulator.
func (c Credentials) UsesEmulator() bool {
	return c.EmulatorHost != ""
}

// MongoDBConfig points at a self-hosted Firestore-compatible backend.
type MongoDBConfig struct {
	URI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017" json:"uri"`
	Database string `env:"MONGODB_DATABASE" envDefault:"firestore_default" json:"database"`
}

// Config holds all configuration for the setup command.
type Config struct {
	Backend     string        `env:"SETUP_BACKEND" envDefault:"firestore" json:"backend"`
	Credentials Credentials   `json:"credentials"`
	MongoDB     MongoDBConfig `json:"mongodb"`
}

// Overrides carries command-line values that win over the environment.
type Overrides struct {
	ProjectID       string
	CredentialsFile string
	Backend         string
}

// LoadEnvFile loads path into the process environment without replacing
// variables that are already set. A missing file is reported as an error
// wrapping os.ErrNotExist.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.NewConfigurationError("failed to parse env file").
			WithCause(err).
			WithDetail("path", path)
	}
	return nil
}

// LoadConfig reads configuration from environment variables, applies the
// overrides and validates the result.
func LoadConfig(overrides Overrides) (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.NewConfigurationError("failed to load configuration from environment").WithCause(err)
	}
	if err := env.Parse(&cfg.Credentials); err != nil {
		return nil, errors.NewConfigurationError("failed to load credentials from environment").WithCause(err)
	}
	if err := env.Parse(&cfg.MongoDB); err != nil {
		return nil, errors.NewConfigurationError("failed to load mongodb configuration from environment").WithCause(err)
	}

	if overrides.ProjectID != "" {
		cfg.Credentials.ProjectID = overrides.ProjectID
	}
	if overrides.CredentialsFile != "" {
		cfg.Credentials.KeyFile = overrides.CredentialsFile
	}
	if overrides.Backend != "" {
		cfg.Backend = overrides.Backend
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Credentials.ProjectID == "" {
		return errors.NewConfigurationError(ProjectIDEnv + " is not set").
			WithCause(errors.ErrMissingProjectID).
			WithComponent("config")
	}
	if c.Credentials.DatabaseID == "" {
		c.Credentials.DatabaseID = firestore.DefaultDatabaseID
	}

	switch c.Backend {
	case BackendFirestore:
		if c.Credentials.UsesKeyFile() {
			if _, err := os.Stat(c.Credentials.KeyFile); err != nil {
				return errors.NewConfigurationError("service account key file is not readable").
					WithCause(err).
					WithDetail("key_file", c.Credentials.KeyFile).
					WithComponent("config")
			}
		}
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.NewConfigurationError("MONGODB_URI is not set").WithComponent("config")
		}
	case BackendMemory:
	default:
		return errors.NewConfigurationError("unsupported backend " + c.Backend).
			WithCause(errors.ErrUnsupportedBackend).
			WithComponent("config")
	}

	return nil
}
