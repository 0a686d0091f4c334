package cloudfirestore

import (
	"context"
	"fmt"

	"firestore-setup/internal/setup/config"
	"firestore-setup/internal/setup/domain/model"
	"firestore-setup/internal/shared/errors"
	"firestore-setup/internal/shared/logger"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// DocumentWriter writes documents through the Firestore admin client.
type DocumentWriter struct {
	client     *firestore.Client
	projectID  string
	databaseID string
	log        logger.Logger
}

// ClientOptions returns the client options implied by creds: an explicit
// service-account key when one is configured, Application Default
// Credentials otherwise.
func ClientOptions(creds config.Credentials) []option.ClientOption {
	var opts []option.ClientOption
	if creds.UsesKeyFile() {
		opts = append(opts, option.WithCredentialsFile(creds.KeyFile))
	}
	return opts
}

// NewDocumentWriter connects to the project's database. The client honours
// FIRESTORE_EMULATOR_HOST, which config loads into creds.EmulatorHost.
func NewDocumentWriter(ctx context.Context, creds config.Credentials, log logger.Logger, extra ...option.ClientOption) (*DocumentWriter, error) {
	log = log.WithComponent("firestore").WithFields(map[string]interface{}{
		"project_id":  creds.ProjectID,
		"database_id": creds.DatabaseID,
	})

	if creds.UsesEmulator() {
		log.Infof("Using Firestore emulator at %s", creds.EmulatorHost)
	} else if creds.UsesKeyFile() {
		log.Info("Using service account key file credentials")
	} else {
		log.Info("Using application default credentials")
	}

	opts := append(ClientOptions(creds), extra...)
	client, err := firestore.NewClientWithDatabase(ctx, creds.ProjectID, creds.DatabaseID, opts...)
	if err != nil {
		return nil, clientInitError(err).WithDetail("project_id", creds.ProjectID)
	}

	return &DocumentWriter{
		client:     client,
		projectID:  creds.ProjectID,
		databaseID: creds.DatabaseID,
		log:        log,
	}, nil
}

// SetDocument creates or overwrites collection/documentID.
func (w *DocumentWriter) SetDocument(ctx context.Context, collection, documentID string, fields map[string]interface{}) error {
	var ref *firestore.DocumentRef
	if col := w.client.Collection(collection); col != nil {
		ref = col.Doc(documentID)
	}
	if ref == nil {
		return errors.NewValidationError("invalid document reference").
			WithCause(errors.ErrInvalidPath).
			WithDetail("collection", collection).
			WithDetail("document_id", documentID)
	}

	res, err := ref.Set(ctx, ToFirestoreFields(fields))
	if err != nil {
		return err
	}
	w.log.WithFields(map[string]interface{}{
		"path":        ref.Path,
		"update_time": res.UpdateTime,
	}).Debug("Document set")
	return nil
}

// Target implements repository.DocumentWriter
func (w *DocumentWriter) Target() string {
	return fmt.Sprintf("firestore projects/%s/databases/%s", w.projectID, w.databaseID)
}

// Close releases the client connection
func (w *DocumentWriter) Close() error {
	return w.client.Close()
}

// ToFirestoreFields swaps the domain server-timestamp marker for the SDK
// sentinel.
func ToFirestoreFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if model.IsServerTimestamp(v) {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}

func clientInitError(err error) *errors.AppError {
	return errors.Classify(err).Clone().
		WithDefaultCode(errors.CodeClientInit).
		WithComponent("firestore")
}
