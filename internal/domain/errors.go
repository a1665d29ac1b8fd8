package domain

import (
	"errors"
	"fmt"
)

// Kind classifies the errors surfaced by retrieval operations.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindInvalidPath Kind = "invalid_path"
	KindValidation  Kind = "validation"
	KindModelLoad   Kind = "model_load"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid path")
	ErrValidation  = errors.New("validation failed")
	ErrModelLoad   = errors.New("embedding model unavailable")
)

// Error is a classified failure. Path is always corpus-relative or the
// caller's own input, never an absolute filesystem location.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindInvalidPath:
		return target == ErrInvalidPath
	case KindValidation:
		return target == ErrValidation
	case KindModelLoad:
		return target == ErrModelLoad
	}
	return false
}

func NotFound(path, msg string) *Error {
	return &Error{Kind: KindNotFound, Path: path, Msg: msg}
}

func InvalidPath(path, msg string) *Error {
	return &Error{Kind: KindInvalidPath, Path: path, Msg: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func ModelLoad(model string, err error) *Error {
	return &Error{Kind: KindModelLoad, Msg: "cannot load embedding model " + model, Err: err}
}

// KindOf returns the kind of a classified error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// PathOf returns the rejected path carried by a classified error.
func PathOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Path
	}
	return ""
}
