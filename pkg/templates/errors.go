package templates

import (
	"errors"
	"fmt"
)

// ErrNoTemplates is wrapped by LoadError when nothing usable was found
var ErrNoTemplates = errors.New("no templates loaded")

// LoadError is fatal to startup: the directory is missing or no image in it
// could be used
type LoadError struct {
	Dir string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load templates from %s: %v", e.Dir, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// DecodeError reports a single template file that could not be decoded.
// The file is skipped and loading continues.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode template %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
