package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeTemplate ErrorType = "template"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeBuild    ErrorType = "build"
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes shared across packages.
const (
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeMissingOutDir    = "MISSING_OUTDIR"
	CodeMissingMetafile  = "MISSING_METAFILE"
	CodeInvalidPlacement = "INVALID_PLACEMENT"
	CodeInvalidIntegrity = "INVALID_INTEGRITY"
	CodeInvalidMetafile  = "INVALID_METAFILE"
	CodeTemplateRead     = "TEMPLATE_READ"
	CodeTemplateParse    = "TEMPLATE_PARSE"
	CodeWrite            = "WRITE"
	CodeCopy             = "COPY"
	CodeHash             = "HASH"
	CodeBuildFailed      = "BUILD_FAILED"
)

// InjectError is a structured error type with context.
type InjectError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Path    string
	Target  string
	Context map[string]interface{}
}

// Sentinel values usable with errors.Is; matching compares Type and Code only.
var (
	ErrMissingOutDir   = &InjectError{Type: ErrorTypeConfig, Code: CodeMissingOutDir}
	ErrMissingMetafile = &InjectError{Type: ErrorTypeConfig, Code: CodeMissingMetafile}
	ErrTemplateRead    = &InjectError{Type: ErrorTypeTemplate, Code: CodeTemplateRead}
)

// Error implements the error interface.
func (e *InjectError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Target != "" {
		parts = append(parts, "target:"+e.Target)
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *InjectError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *InjectError) Is(target error) bool {
	var t *InjectError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *InjectError) WithContext(key string, value interface{}) *InjectError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath records the file the error relates to.
func (e *InjectError) WithPath(path string) *InjectError {
	e.Path = path

	return e
}

// WithTarget records the HTML target the error relates to.
func (e *InjectError) WithTarget(target string) *InjectError {
	e.Target = target

	return e
}

// Error creation functions

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *InjectError {
	return &InjectError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewTemplateError creates a template error for the template at path.
func NewTemplateError(code, path string, cause error) *InjectError {
	return &InjectError{
		Type:    ErrorTypeTemplate,
		Code:    code,
		Message: "cannot load template",
		Path:    path,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *InjectError {
	return &InjectError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewBuildError creates a build error.
func NewBuildError(code, message string, cause error) *InjectError {
	return &InjectError{
		Type:    ErrorTypeBuild,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapIO wraps err as an I/O error for path. It returns nil for a nil err.
func WrapIO(err error, code, path string) error {
	if err == nil {
		return nil
	}

	return NewIOError(code, "", err).WithPath(path)
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return typeOf(err) == ErrorTypeConfig
}

// IsTemplateError checks if an error concerns the template.
func IsTemplateError(err error) bool {
	return typeOf(err) == ErrorTypeTemplate
}

// IsIOError checks if an error happened while touching the filesystem.
func IsIOError(err error) bool {
	return typeOf(err) == ErrorTypeIO
}

func typeOf(err error) ErrorType {
	var ie *InjectError
	if errors.As(err, &ie) {
		return ie.Type
	}

	return ""
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler provides centralized error handling for the watch loop.
type ErrorHandler struct {
	logger    Logger
	collector *ErrorCollector
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger, collector *ErrorCollector) *ErrorHandler {
	return &ErrorHandler{
		logger:    logger,
		collector: collector,
	}
}

// Handle records err and logs it according to its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	if h.collector != nil {
		h.collector.AddError(err)
	}

	if h.logger == nil {
		return
	}

	var ie *InjectError
	if !errors.As(err, &ie) {
		h.logger.Error(ctx, err, "Unexpected error")
		return
	}

	switch ie.Type {
	case ErrorTypeConfig:
		h.logger.Error(ctx, err, "Configuration error", "code", ie.Code)
	case ErrorTypeTemplate:
		h.logger.Error(ctx, err, "Template error", "code", ie.Code, "path", ie.Path)
	case ErrorTypeIO:
		h.logger.Error(ctx, err, "I/O error", "code", ie.Code, "path", ie.Path)
	case ErrorTypeBuild:
		h.logger.Warn(ctx, err, "Build error", "code", ie.Code)
	default:
		h.logger.Error(ctx, err, "Internal error", "code", ie.Code)
	}
}
