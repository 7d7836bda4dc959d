package csvstory

import (
	"errors"
	"fmt"
)

// Precondition and control errors returned by the Workbench.
var (
	ErrNoFile           = errors.New("no CSV file selected")
	ErrInvalidExtension = errors.New("selected file is not a .csv file")
	ErrStale            = errors.New("response superseded by a newer request")
	ErrLogout           = errors.New("logout requested")
	ErrUnknownAction    = errors.New("unknown action")
	ErrUnknownSection   = errors.New("unknown section")
)

// ErrorKind classifies backend failures.
type ErrorKind int

// Error kinds.
const (
	// ErrorTransport covers network failures, non-2xx statuses and bodies
	// that could not be decoded.
	ErrorTransport ErrorKind = iota
	// ErrorApplication means the backend answered but reported an error
	// field in its JSON body.
	ErrorApplication
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorApplication:
		return "application"
	default:
		return "transport"
	}
}

// Error is a backend failure carrying a human-readable message.
type Error struct {
	Kind    ErrorKind
	Op      string // Endpoint or operation, e.g. "/analyze"
	Status  int    // HTTP status, 0 when no response was received
	Message string // Best-effort message extracted from the response
	Err     error  // Underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (HTTP %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorMessage returns the text to show a user for err: the extracted backend
// message for *Error values, err.Error() otherwise.
func ErrorMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsApplicationError reports whether err is an error the backend reported
// inside a successful response.
func IsApplicationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrorApplication
}
