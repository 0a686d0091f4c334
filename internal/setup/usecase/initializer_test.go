package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"firestore-setup/internal/setup/adapter/persistence/memory"
	"firestore-setup/internal/setup/domain/model"
	apperrors "firestore-setup/internal/shared/errors"
	"firestore-setup/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const testProjectID = "my-vault-app"

// recordingReporter keeps the sequence of reporter calls.
type recordingReporter struct {
	events       []string
	setupErr     error
	succeededErr error
}

func (r *recordingReporter) Started(projectID, target string) error {
	r.events = append(r.events, "started:"+projectID)
	return nil
}

func (r *recordingReporter) CollectionCreated(c model.Collection) error {
	r.events = append(r.events, "created:"+c.Name)
	return nil
}

func (r *recordingReporter) Succeeded(projectID string, created []model.Collection) error {
	r.events = append(r.events, "succeeded")
	return r.succeededErr
}

func (r *recordingReporter) SetupFailed(err error) error {
	r.events = append(r.events, "failed")
	r.setupErr = err
	return nil
}

func (r *recordingReporter) Fatal(err error) error {
	r.events = append(r.events, "fatal")
	return nil
}

// failingWriter fails the failAt-th write (1-based) and delegates the rest.
type failingWriter struct {
	*memory.DocumentWriter
	failAt int
	err    error
	calls  []string
}

func (w *failingWriter) SetDocument(ctx context.Context, collection, documentID string, fields map[string]interface{}) error {
	w.calls = append(w.calls, collection)
	if len(w.calls) == w.failAt {
		return w.err
	}
	return w.DocumentWriter.SetDocument(ctx, collection, documentID, fields)
}

// MockDocumentWriter is a testify mock of repository.DocumentWriter.
type MockDocumentWriter struct {
	mock.Mock
}

func (m *MockDocumentWriter) SetDocument(ctx context.Context, collection, documentID string, fields map[string]interface{}) error {
	return m.Called(ctx, collection, documentID, fields).Error(0)
}

func (m *MockDocumentWriter) Target() string { return "mock" }

func (m *MockDocumentWriter) Close() error { return m.Called().Error(0) }

func steppingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestInitializer_Run_WritesEveryPlaceholder(t *testing.T) {
	store := memory.NewDocumentWriterWithClock(steppingClock())
	reporter := &recordingReporter{}
	uc := NewInitializer(store, reporter, logger.NewNopLogger(), testProjectID)

	result, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, result.State)
	assert.Empty(t, result.Failed)
	assert.Equal(t, model.Collections, result.Created)

	for _, name := range model.CollectionNames() {
		doc, ok := store.Get(name + "/_placeholder")
		require.True(t, ok, name)
		assert.Equal(t, true, doc[model.FieldPlaceholder], name)
		assert.NotEmpty(t, doc[model.FieldNote], name)
		assert.IsType(t, time.Time{}, doc[model.FieldCreatedAt], name)
	}
	assert.Equal(t, []string{
		"started:" + testProjectID,
		"created:users", "created:vaults", "created:files", "created:shared",
		"succeeded",
	}, reporter.events)
}

func TestInitializer_Run_IsIdempotent(t *testing.T) {
	store := memory.NewDocumentWriterWithClock(steppingClock())
	uc := NewInitializer(store, &recordingReporter{}, logger.NewNopLogger(), testProjectID)

	_, err := uc.Run(context.Background())
	require.NoError(t, err)
	first, _ := store.Get("files/_placeholder")

	_, err = uc.Run(context.Background())
	require.NoError(t, err)
	second, _ := store.Get("files/_placeholder")

	assert.Equal(t, []string{
		"files/_placeholder", "shared/_placeholder", "users/_placeholder", "vaults/_placeholder",
	}, store.Paths())
	assert.Equal(t, 8, store.Writes())
	assert.True(t, second[model.FieldCreatedAt].(time.Time).After(first[model.FieldCreatedAt].(time.Time)))
	assert.Equal(t, first[model.FieldNote], second[model.FieldNote])
}

func TestInitializer_Run_StopsAtFirstFailure(t *testing.T) {
	writeErr := status.Error(codes.Unavailable, "connection reset")
	store := &failingWriter{DocumentWriter: memory.NewDocumentWriter(), failAt: 2, err: writeErr}
	reporter := &recordingReporter{}
	uc := NewInitializer(store, reporter, logger.NewNopLogger(), testProjectID)

	result, err := uc.Run(context.Background())
	require.Error(t, err)

	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "vaults", we.Collection)
	assert.ErrorIs(t, err, writeErr)

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, "vaults", result.Failed)
	assert.Equal(t, []model.Collection{model.Collections[0]}, result.Created)

	assert.Equal(t, []string{"users", "vaults"}, store.calls)
	assert.Equal(t, []string{"users/_placeholder"}, store.Paths())
	assert.Equal(t, []string{"started:" + testProjectID, "created:users", "failed"}, reporter.events)
	assert.False(t, apperrors.IsPermissionDenied(reporter.setupErr))
}

func TestInitializer_Run_PermissionDenied(t *testing.T) {
	w := new(MockDocumentWriter)
	w.On("SetDocument", mock.Anything, "users", model.PlaceholderID, mock.Anything).
		Return(status.Error(codes.PermissionDenied, "Missing or insufficient permissions.")).Once()
	reporter := &recordingReporter{}
	uc := NewInitializer(w, reporter, logger.NewNopLogger(), testProjectID)

	result, err := uc.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateFailed, result.State)
	assert.Empty(t, result.Created)
	assert.True(t, apperrors.IsPermissionDenied(err))
	assert.True(t, apperrors.IsPermissionDenied(reporter.setupErr))
	w.AssertNumberOfCalls(t, "SetDocument", 1)
	w.AssertNotCalled(t, "SetDocument", mock.Anything, "vaults", mock.Anything, mock.Anything)
}

func TestInitializer_Run_DoesNotDecorateWriterError(t *testing.T) {
	denied := apperrors.NewAuthorizationError("denied").WithComponent("firestore")
	w := new(MockDocumentWriter)
	w.On("SetDocument", mock.Anything, "users", model.PlaceholderID, mock.Anything).Return(denied).Once()
	uc := NewInitializer(w, &recordingReporter{}, logger.NewNopLogger(), testProjectID)

	_, err := uc.Run(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.NotSame(t, denied, appErr)
	assert.Equal(t, "users", appErr.Details["collection"])
	assert.Equal(t, apperrors.CodePermissionDenied, appErr.Code)
	assert.NotContains(t, denied.Details, "collection")
}

func TestInitializer_Run_LastWriteFails(t *testing.T) {
	w := new(MockDocumentWriter)
	for _, name := range []string{"users", "vaults", "files"} {
		w.On("SetDocument", mock.Anything, name, model.PlaceholderID, mock.Anything).Return(nil).Once()
	}
	w.On("SetDocument", mock.Anything, "shared", model.PlaceholderID, mock.Anything).Return(errors.New("deadline exceeded")).Once()
	uc := NewInitializer(w, &recordingReporter{}, logger.NewNopLogger(), testProjectID)

	result, err := uc.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "shared", result.Failed)
	assert.Len(t, result.Created, 3)
	w.AssertExpectations(t)
}

func TestInitializer_Run_PassesServerTimestampMarker(t *testing.T) {
	w := new(MockDocumentWriter)
	w.On("SetDocument", mock.Anything, mock.Anything, model.PlaceholderID, mock.MatchedBy(func(f map[string]interface{}) bool {
		return f[model.FieldPlaceholder] == true && model.IsServerTimestamp(f[model.FieldCreatedAt]) && f[model.FieldNote] != ""
	})).Return(nil).Times(4)
	uc := NewInitializer(w, &recordingReporter{}, logger.NewNopLogger(), testProjectID)

	_, err := uc.Run(context.Background())
	require.NoError(t, err)
	w.AssertExpectations(t)
}

func TestInitializer_Run_SummaryFailureIsNotAWriteError(t *testing.T) {
	store := memory.NewDocumentWriter()
	reporter := &recordingReporter{succeededErr: errors.New("stdout closed")}
	uc := NewInitializer(store, reporter, logger.NewNopLogger(), testProjectID)

	result, err := uc.Run(context.Background())
	require.Error(t, err)

	var we *WriteError
	assert.False(t, errors.As(err, &we))
	assert.Equal(t, StateFailed, result.State)
	assert.Len(t, store.Paths(), 4)
}
