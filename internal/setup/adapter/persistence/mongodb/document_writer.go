package mongodb

import (
	"context"
	"fmt"
	"time"

	"firestore-setup/internal/setup/config"
	"firestore-setup/internal/setup/domain/model"
	"firestore-setup/internal/shared/errors"
	"firestore-setup/internal/shared/firestore"
	"firestore-setup/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// DocumentWriter stores documents in a MongoDB database laid out the way the
// self-hosted Firestore-compatible server expects: one MongoDB collection per
// Firestore collection, documents keyed by project, database and path.
type DocumentWriter struct {
	client     *mongo.Client
	db         *mongo.Database
	projectID  string
	databaseID string
	log        logger.Logger
}

// NewDocumentWriter connects to cfg.URI and verifies the connection.
func NewDocumentWriter(ctx context.Context, cfg config.MongoDBConfig, creds config.Credentials, log logger.Logger) (*DocumentWriter, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Classify(err).Clone().WithDefaultCode(errors.CodeClientInit).WithComponent("mongodb")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.NewInfrastructureError("failed to reach MongoDB").
			WithCause(err).
			WithCode(errors.CodeClientInit).
			WithComponent("mongodb")
	}

	w := NewDocumentWriterWithDatabase(client.Database(cfg.Database), creds, log)
	w.client = client
	return w, nil
}

// NewDocumentWriterWithDatabase uses an already connected database. Close
// leaves the client connected.
func NewDocumentWriterWithDatabase(db *mongo.Database, creds config.Credentials, log logger.Logger) *DocumentWriter {
	return &DocumentWriter{
		db:         db,
		projectID:  creds.ProjectID,
		databaseID: creds.DatabaseID,
		log:        log.WithComponent("mongodb"),
	}
}

// SetDocument upserts the document, replacing every field. Server timestamps
// resolve to the server's $$NOW.
func (w *DocumentWriter) SetDocument(ctx context.Context, collection, documentID string, fields map[string]interface{}) error {
	path := firestore.BuildDocumentPath(collection, documentID)
	if err := firestore.ValidateDocumentPath(path); err != nil {
		return err
	}

	filter := bson.M{
		"projectID":  w.projectID,
		"databaseID": w.databaseID,
		"path":       path,
	}
	update := w.updatePipeline(collection, documentID, path, fields)

	res, err := w.db.Collection(collection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}
	w.log.WithFields(map[string]interface{}{
		"path":     path,
		"matched":  res.MatchedCount,
		"upserted": res.UpsertedCount,
	}).Debug("Document set")
	return nil
}

// updatePipeline drops the stored fields before setting the new ones; a
// nested object in $set would merge into the existing embedded document.
func (w *DocumentWriter) updatePipeline(collection, documentID, path string, fields map[string]interface{}) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unset", Value: "fields"}},
		{{Key: "$set", Value: bson.M{
			"projectID":    w.projectID,
			"databaseID":   w.databaseID,
			"collectionID": collection,
			"documentID":   documentID,
			"path":         path,
			"parentPath":   collection,
			"fields":       toPipelineFields(fields),
			"updateTime":   "$$NOW",
			"createTime":   bson.M{"$ifNull": bson.A{"$createTime", "$$NOW"}},
			"exists":       true,
		}}},
	}
}

// Target implements repository.DocumentWriter
func (w *DocumentWriter) Target() string {
	return fmt.Sprintf("mongodb %s (project %s)", w.db.Name(), w.projectID)
}

// Close disconnects the client this writer opened
func (w *DocumentWriter) Close() error {
	if w.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return w.client.Disconnect(ctx)
}

// toPipelineFields wraps every value in $literal so strings beginning with
// "$" are stored verbatim, and maps the server timestamp marker to $$NOW.
func toPipelineFields(fields map[string]interface{}) bson.M {
	out := make(bson.M, len(fields))
	for k, v := range fields {
		if model.IsServerTimestamp(v) {
			out[k] = "$$NOW"
			continue
		}
		out[k] = bson.M{"$literal": v}
	}
	return out
}
