package errors

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error types for the setup run
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeConfiguration  ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeInfrastructure ErrorType = "INFRASTRUCTURE_ERROR"
	ErrorTypeAuthorization  ErrorType = "AUTHORIZATION_ERROR"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

// Error codes reported next to the message on failure.
const (
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeClientInit       = "CLIENT_INIT_FAILED"
	CodeUnknown          = "UNKNOWN"
)

// mongoUnauthorized is the server error code MongoDB returns for a denied command.
const mongoUnauthorized = 13

var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrMissingProjectID   = errors.New("project ID is not configured")
	ErrUnsupportedBackend = errors.New("unsupported backend")
	ErrInvalidPath        = errors.New("invalid document path")
)

// AppError carries the classification of a failure alongside its cause.
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Status    codes.Code             `json:"status"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// GRPCStatus lets status.Code and status.FromError see through an AppError.
func (e *AppError) GRPCStatus() *status.Status {
	return status.New(e.Status, e.Error())
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, code codes.Code) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Status:  code,
		Details: make(map[string]interface{}),
	}
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDefaultCode sets code unless a more specific one is already known.
func (e *AppError) WithDefaultCode(code string) *AppError {
	if e.Code == "" || e.Code == CodeUnknown {
		e.Code = code
	}
	return e
}

// Clone returns a copy that can be decorated without touching e.
func (e *AppError) Clone() *AppError {
	c := *e
	c.Details = make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		c.Details[k] = v
	}
	return &c
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, codes.InvalidArgument)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, message, codes.FailedPrecondition).WithCode(CodeInvalidConfig)
}

// NewInfrastructureError creates an infrastructure error
func NewInfrastructureError(message string) *AppError {
	return NewAppError(ErrorTypeInfrastructure, message, codes.Unavailable)
}

// NewAuthorizationError creates a permission-denied error
func NewAuthorizationError(message string) *AppError {
	return NewAppError(ErrorTypeAuthorization, message, codes.PermissionDenied).WithCode(CodePermissionDenied)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, codes.Internal)
}

// Classify turns any error returned by a backend into an AppError. An
// AppError anywhere in the chain is returned as is; Clone it before
// decorating.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if isMongoUnauthorized(err) {
		return NewAuthorizationError("permission denied").WithCause(err).WithDetail("mongo_code", mongoUnauthorized)
	}

	st, ok := status.FromError(err)
	if !ok {
		return NewInternalError("unexpected failure").WithCode(CodeUnknown).WithCause(err)
	}

	switch st.Code() {
	case codes.PermissionDenied:
		appErr = NewAuthorizationError(st.Message())
	case codes.Unauthenticated:
		appErr = NewAppError(ErrorTypeAuthorization, st.Message(), codes.Unauthenticated)
	case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound:
		appErr = NewValidationError(st.Message())
		appErr.Status = st.Code()
	default:
		appErr = NewInfrastructureError(st.Message())
		appErr.Status = st.Code()
	}
	if appErr.Code == "" {
		appErr.Code = st.Code().String()
	}
	return appErr.WithCause(err)
}

// IsPermissionDenied reports whether err signals an authorization denial
// (gRPC code 7 or the MongoDB equivalent). Unauthenticated does not count.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermissionDenied) || isMongoUnauthorized(err) {
		return true
	}
	return status.Code(err) == codes.PermissionDenied
}

// StatusCode returns the numeric status of err, 2 (Unknown) when it has none.
func StatusCode(err error) codes.Code {
	if IsPermissionDenied(err) {
		return codes.PermissionDenied
	}
	return status.Code(err)
}

// Message returns the operator facing text of err. For backend errors this
// is the server's description without the transport prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		if st, ok := status.FromError(err); ok {
			return st.Message()
		}
		return err.Error()
	}
	if appErr.Cause != nil {
		if st, ok := status.FromError(appErr.Cause); ok && st.Message() == appErr.Message {
			return appErr.Message
		}
	}
	return appErr.Error()
}

func isMongoUnauthorized(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == mongoUnauthorized
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == mongoUnauthorized {
				return true
			}
		}
	}
	return false
}
