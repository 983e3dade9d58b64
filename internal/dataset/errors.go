package dataset

import (
	"errors"
	"fmt"
)

// InputNotFoundError reports a source that is missing or cannot be read.
type InputNotFoundError struct {
	Path string
	Err  error
}

func (e *InputNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("input %s not found", e.Path)
}

func (e *InputNotFoundError) Unwrap() error {
	return e.Err
}

// UnsupportedGeometryError reports a feature that is not a single-part line
// with at least two vertices.
type UnsupportedGeometryError struct {
	Path     string
	Feature  int
	Geometry string
}

func (e *UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("%s: feature %d has unsupported geometry %s", e.Path, e.Feature, e.Geometry)
}

// OutputWriteError reports a destination that could not be written.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}

// IsInputNotFound reports whether err is or wraps an InputNotFoundError.
func IsInputNotFound(err error) bool {
	var e *InputNotFoundError
	return errors.As(err, &e)
}

// IsUnsupportedGeometry reports whether err is or wraps an UnsupportedGeometryError.
func IsUnsupportedGeometry(err error) bool {
	var e *UnsupportedGeometryError
	return errors.As(err, &e)
}

// IsOutputWrite reports whether err is or wraps an OutputWriteError.
func IsOutputWrite(err error) bool {
	var e *OutputWriteError
	return errors.As(err, &e)
}
