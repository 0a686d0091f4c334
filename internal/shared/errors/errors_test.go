package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithCode("VAL001").WithDetail("field", "name").WithComponent("config")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "VAL001", err.Code)
	assert.Equal(t, "config", err.Component)
	assert.Equal(t, "name", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	err := NewConfigurationError("bad config").WithCause(ErrMissingProjectID)
	assert.Equal(t, ErrMissingProjectID, err.Unwrap())
	assert.True(t, errors.Is(err, ErrMissingProjectID))
	assert.Equal(t, "bad config: project ID is not configured", err.Error())
}

func TestClassify_GRPCPermissionDenied(t *testing.T) {
	src := status.Error(codes.PermissionDenied, "Missing or insufficient permissions.")

	appErr := Classify(src)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeAuthorization, appErr.Type)
	assert.Equal(t, CodePermissionDenied, appErr.Code)
	assert.Equal(t, codes.PermissionDenied, appErr.Status)
	assert.Equal(t, uint32(7), uint32(appErr.Status))
	assert.True(t, IsPermissionDenied(appErr))
	assert.True(t, IsPermissionDenied(fmt.Errorf("write users: %w", src)))
}

func TestClassify_OtherCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantCode string
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), ErrorTypeInfrastructure, "Unavailable"},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), ErrorTypeInfrastructure, "DeadlineExceeded"},
		{"not found", status.Error(codes.NotFound, "no database"), ErrorTypeValidation, "NotFound"},
		{"unauthenticated", status.Error(codes.Unauthenticated, "no creds"), ErrorTypeAuthorization, "Unauthenticated"},
		{"plain", errors.New("dial tcp: refused"), ErrorTypeInternal, CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := Classify(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.False(t, IsPermissionDenied(appErr))
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestClassify_KeepsExistingAppError(t *testing.T) {
	orig := NewConfigurationError("missing project")
	assert.Same(t, orig, Classify(fmt.Errorf("load: %w", orig)))
	assert.Nil(t, Classify(nil))
}

func TestClassify_MongoUnauthorized(t *testing.T) {
	src := mongo.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized on firestore"}

	appErr := Classify(src)
	assert.Equal(t, ErrorTypeAuthorization, appErr.Type)
	assert.True(t, IsPermissionDenied(src))
	assert.Equal(t, codes.PermissionDenied, StatusCode(src))

	writeErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 13, Message: "denied"}}}
	assert.True(t, IsPermissionDenied(writeErr))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, codes.Unknown, StatusCode(errors.New("x")))
	assert.Equal(t, codes.Unavailable, StatusCode(status.Error(codes.Unavailable, "x")))
	assert.Equal(t, codes.FailedPrecondition, StatusCode(NewConfigurationError("x")))
}

func TestAppError_WithDefaultCode(t *testing.T) {
	denied := Classify(status.Error(codes.PermissionDenied, "denied")).WithDefaultCode(CodeClientInit)
	assert.Equal(t, CodePermissionDenied, denied.Code)

	plain := Classify(errors.New("no credentials")).WithDefaultCode(CodeClientInit)
	assert.Equal(t, CodeClientInit, plain.Code)

	assert.Equal(t, CodeClientInit, NewInfrastructureError("down").WithDefaultCode(CodeClientInit).Code)
}

func TestAppError_CloneLeavesOriginalUntouched(t *testing.T) {
	orig := NewAuthorizationError("denied").WithDetail("project_id", "p")

	c := Classify(fmt.Errorf("write: %w", orig)).Clone().WithDetail("collection", "users").WithCode("OTHER")

	assert.NotSame(t, orig, c)
	assert.Equal(t, CodePermissionDenied, orig.Code)
	assert.NotContains(t, orig.Details, "collection")
	assert.Equal(t, "users", c.Details["collection"])
	assert.Equal(t, "p", c.Details["project_id"])
	assert.True(t, IsPermissionDenied(c))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Missing or insufficient permissions.",
		Message(status.Error(codes.PermissionDenied, "Missing or insufficient permissions.")))
	assert.Equal(t, "Missing or insufficient permissions.",
		Message(Classify(status.Error(codes.PermissionDenied, "Missing or insufficient permissions."))))
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.Equal(t, "PUBLIC_FIREBASE_PROJECT_ID is not set: project ID is not configured",
		Message(NewConfigurationError("PUBLIC_FIREBASE_PROJECT_ID is not set").WithCause(ErrMissingProjectID)))
	assert.Empty(t, Message(nil))
}
