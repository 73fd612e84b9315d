package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure so callers can branch on it.
type Kind string

const (
	KindTemplate   Kind = "TemplateError"
	KindConfig     Kind = "InvalidConfig"
	KindGeneration Kind = "GenerationError"
	KindIO         Kind = "IOError"
	KindRender     Kind = "RenderError"
	KindUpload     Kind = "UploadError"
	KindFetch      Kind = "FetchError"
	KindNotFound   Kind = "NotFound"
	KindExtract    Kind = "ExtractError"
	KindPersist    Kind = "PersistError"
)

// Error carries a failure kind, the operation (usually a stage or step name)
// that produced it and the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Op != "" {
		prefix = fmt.Sprintf("%s(%s)", e.Kind, e.Op)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error.
func NewError(kind Kind, op, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

func TemplateError(message string, err error) *Error {
	return NewError(KindTemplate, "", message, err)
}

func InvalidConfig(message string, err error) *Error {
	return NewError(KindConfig, "", message, err)
}

func GenerationError(stage, message string, err error) *Error {
	return NewError(KindGeneration, stage, message, err)
}

func IOError(message string, err error) *Error {
	return NewError(KindIO, "", message, err)
}

func RenderError(message string, err error) *Error {
	return NewError(KindRender, "", message, err)
}

func UploadError(message string, err error) *Error {
	return NewError(KindUpload, "", message, err)
}

func FetchError(message string, err error) *Error {
	return NewError(KindFetch, "", message, err)
}

func NotFound(message string, err error) *Error {
	return NewError(KindNotFound, "", message, err)
}

func ExtractError(message string, err error) *Error {
	return NewError(KindExtract, "", message, err)
}

func PersistError(message string, err error) *Error {
	return NewError(KindPersist, "", message, err)
}

// KindOf returns the kind of the outermost domain error in err's chain, or ""
// when err carries none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether any domain error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Kind == kind {
			return true
		}
		err = de.Err
	}
	return false
}
