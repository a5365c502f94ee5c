package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindPermission    ErrorKind = "permission"
	KindCapture       ErrorKind = "capture"
	KindTranscription ErrorKind = "transcription"
	KindCompletion    ErrorKind = "completion"
)

var (
	ErrTurnInProgress   = errors.New("a turn is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrAlreadyRecording = errors.New("recording already in progress")
)

// Error is a failure at the turn boundary.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// RemoteError captures a non-2xx response from an external API.
type RemoteError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *RemoteError) HTTPStatusCode() int {
	return e.StatusCode
}

// MalformedResponseError is returned when a 2xx response does not have the expected shape.
type MalformedResponseError struct {
	Service string
	Reason  string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid response from %s: %s", e.Service, e.Reason)
	}
	return fmt.Sprintf("invalid response from %s: %s: %v", e.Service, e.Reason, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
