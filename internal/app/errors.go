package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrInvalidImportMode = errors.New("invalid import mode")
	ErrStudentNotFound   = errors.New("student not found")
)
