// Package apperr defines the sentinel errors shared across EcoLog packages.
// Callers wrap them with fmt.Errorf("...: %w", err) and match with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUpstream     = errors.New("upstream service error")
	ErrParse        = errors.New("unexpected response shape")
	ErrPersistence  = errors.New("persistence error")
)
