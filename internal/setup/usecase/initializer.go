package usecase

import (
	"context"
	"fmt"

	"firestore-setup/internal/setup/domain/model"
	"firestore-setup/internal/setup/domain/repository"
	"firestore-setup/internal/shared/errors"
	"firestore-setup/internal/shared/logger"
)

// State of an initializer run.
type State string

const (
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
)

// Reporter renders the progress of a run for the operator.
type Reporter interface {
	Started(projectID, target string) error
	CollectionCreated(c model.Collection) error
	Succeeded(projectID string, created []model.Collection) error
	SetupFailed(err error) error
	Fatal(err error) error
}

// RunResult describes how far a run got.
type RunResult struct {
	State   State
	Created []model.Collection
	// Failed is the collection whose write failed, empty otherwise.
	Failed string
}

// WriteError is returned when a placeholder write fails. It has already been
// reported through Reporter.SetupFailed.
type WriteError struct {
	Collection string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("create %s placeholder: %v", e.Collection, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Initializer creates the placeholder document of every expected collection.
type Initializer struct {
	writer      repository.DocumentWriter
	reporter    Reporter
	log         logger.Logger
	projectID   string
	collections []model.Collection
}

// NewInitializer creates an Initializer for the standard collection set.
func NewInitializer(writer repository.DocumentWriter, reporter Reporter, log logger.Logger, projectID string) *Initializer {
	return &Initializer{
		writer:      writer,
		reporter:    reporter,
		log:         log.WithComponent("initializer"),
		projectID:   projectID,
		collections: model.Collections,
	}
}

// Run writes the placeholders one at a time, in order, stopping at the first
// failure. Earlier writes are left in place. A *WriteError means the failure
// was already reported; any other error (such as a reporter failure) was not.
func (uc *Initializer) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{State: StateRunning}

	if err := uc.reporter.Started(uc.projectID, uc.writer.Target()); err != nil {
		return uc.fail(result, "", err)
	}

	for _, c := range uc.collections {
		doc := model.NewPlaceholderDocument(c)
		log := uc.log.WithFields(map[string]interface{}{
			"collection": doc.Collection,
			"path":       doc.Path(),
		})

		if err := uc.write(ctx, doc); err != nil {
			log.WithError(err).Error("Failed to create placeholder document")
			if repErr := uc.reporter.SetupFailed(err); repErr != nil {
				log.WithError(repErr).Warn("Failed to report setup error")
			}
			return uc.fail(result, c.Name, &WriteError{Collection: c.Name, Err: err})
		}

		result.Created = append(result.Created, c)
		log.Debug("Placeholder document written")

		if err := uc.reporter.CollectionCreated(c); err != nil {
			return uc.fail(result, "", err)
		}
	}

	if err := uc.reporter.Succeeded(uc.projectID, result.Created); err != nil {
		return uc.fail(result, "", err)
	}

	result.State = StateSucceeded
	uc.log.WithFields(map[string]interface{}{"collections": len(result.Created)}).Info("Database setup complete")
	return result, nil
}

func (uc *Initializer) write(ctx context.Context, doc *model.PlaceholderDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := uc.writer.SetDocument(ctx, doc.Collection, doc.ID, doc.Fields()); err != nil {
		return errors.Classify(err).Clone().WithDetail("collection", doc.Collection)
	}
	return nil
}

func (uc *Initializer) fail(result *RunResult, collection string, err error) (*RunResult, error) {
	result.State = StateFailed
	result.Failed = collection
	return result, err
}
