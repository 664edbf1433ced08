package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors for workbook loading
var (
	ErrFileNotFound  = errors.New("workbook file not found")
	ErrInvalidFormat = errors.New("invalid workbook format")
	ErrUnreadable    = errors.New("workbook unreadable")
)

// LoadError describes a failed workbook load. Any LoadError aborts the whole
// load it belongs to.
type LoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(path, op string, kind error, cause error) *LoadError {
	if cause == nil {
		return &LoadError{Path: path, Op: op, Err: kind}
	}
	return &LoadError{Path: path, Op: op, Err: fmt.Errorf("%w: %v", kind, cause)}
}
