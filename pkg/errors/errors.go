package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a failure by the scope it aborts
type ErrorType string

const (
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeEnumeration ErrorType = "enumeration"
	ErrorTypeLaunch      ErrorType = "launch"
	ErrorTypeNavigation  ErrorType = "navigation"
	ErrorTypeIdentify    ErrorType = "identify"
	ErrorTypeOrder       ErrorType = "order"
	ErrorTypeDownload    ErrorType = "download"
	ErrorTypeSave        ErrorType = "save"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Sentinel errors matched with errors.Is
var (
	ErrLoginFormMissing  = errors.New("login form not found")
	ErrLoginNotConfirmed = errors.New("login not confirmed")
	ErrTwoFactorExpired  = errors.New("two-factor confirmation window expired")
	ErrNoOrderRows       = errors.New("no order rows rendered")
	ErrNoDownload        = errors.New("download did not start")
)

// Error is a typed failure raised by one crawl operation
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Err     error
}

// New creates a typed error wrapping err
func New(t ErrorType, op, message string, err error) *Error {
	return &Error{Type: t, Op: op, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsFatal reports whether an error of this type must abort the whole crawl
func IsFatal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeAuth, ErrorTypeEnumeration, ErrorTypeLaunch:
		return true
	default:
		return false
	}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeLaunch:
		return true
	default:
		return false
	}
}
