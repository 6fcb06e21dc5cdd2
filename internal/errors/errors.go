package errors

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// BuildMessage is a bundler diagnostic carried into the error collector.
type BuildMessage struct {
	File      string
	Line      int
	Column    int
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (m *BuildMessage) Error() string {
	if m.File == "" {
		return fmt.Sprintf("%s: %s", m.Severity, m.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", m.File, m.Line, m.Column, m.Severity, m.Message)
}

// ErrorCollector collects bundler messages and pass failures between rebuilds.
type ErrorCollector struct {
	messages []BuildMessage
	errors   []error
	mutex    sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		messages: make([]BuildMessage, 0),
		errors:   make([]error, 0),
	}
}

// Add adds a bundler message to the collector
func (ec *ErrorCollector) Add(msg BuildMessage) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	msg.Timestamp = time.Now()
	ec.messages = append(ec.messages, msg)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// Messages returns a copy of the collected bundler messages
func (ec *ErrorCollector) Messages() []BuildMessage {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]BuildMessage, len(ec.messages))
	copy(result, ec.messages)
	return result
}

// Err joins every collected error and error-severity message, or returns nil.
func (ec *ErrorCollector) Err() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	all := make([]error, 0, len(ec.messages)+len(ec.errors))
	for i := range ec.messages {
		if ec.messages[i].Severity == ErrorSeverityError {
			msg := ec.messages[i]
			all = append(all, &msg)
		}
	}
	all = append(all, ec.errors...)

	return errors.Join(all...)
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) > 0 {
		return true
	}
	for _, m := range ec.messages {
		if m.Severity == ErrorSeverityError {
			return true
		}
	}
	return false
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.messages = ec.messages[:0]
	ec.errors = ec.errors[:0]
}
