// Package ocrerr defines the error taxonomy shared by the OCR pipeline
// components. Every failure surfaced by the engine carries one of a small set
// of kinds so callers can distinguish configuration problems (ModelLoad,
// InvalidImage) from per-stage runtime failures (Preprocessing, Detection,
// Recognition).
package ocrerr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindModelLoad indicates a model or dictionary file could not be loaded.
	KindModelLoad Kind = iota
	// KindDetection indicates a detection or layout/table inference failure,
	// including unexpected output tensor shapes.
	KindDetection
	// KindRecognition indicates a recognition or classification failure.
	KindRecognition
	// KindPreprocessing wraps an underlying image-transform error.
	KindPreprocessing
	// KindInvalidImage indicates the input image was nil or unusable.
	KindInvalidImage
)

// String returns the kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindModelLoad:
		return "model load"
	case KindDetection:
		return "detection"
	case KindRecognition:
		return "recognition"
	case KindPreprocessing:
		return "preprocessing"
	case KindInvalidImage:
		return "invalid image"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline error. It wraps an optional cause so that
// errors.Is/As keep working across package boundaries.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error. A nil cause yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err and true if err (or anything it wraps) is a
// classified pipeline error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
