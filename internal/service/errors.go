package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id uuid.UUID) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("review job %s not found", id)}
}

type ErrJobNotRunning struct {
	error
}

func NewErrJobNotRunning(id uuid.UUID) *ErrJobNotRunning {
	return &ErrJobNotRunning{fmt.Errorf("review job %s is not running", id)}
}

type ErrJobRunning struct {
	error
}

func NewErrJobRunning(id uuid.UUID) *ErrJobRunning {
	return &ErrJobRunning{fmt.Errorf("review job %s is still running", id)}
}

type ErrJobAccessForbidden struct {
	error
}

func NewErrJobAccessForbidden(id uuid.UUID) *ErrJobAccessForbidden {
	return &ErrJobAccessForbidden{fmt.Errorf("review job %s belongs to another user", id)}
}

type ErrInvalidForm struct {
	error
}

func NewErrInvalidForm(message string) *ErrInvalidForm {
	return &ErrInvalidForm{fmt.Errorf("bad request: %s", message)}
}

type ErrTooManyRecords struct {
	error
}

func NewErrTooManyRecords(count, limit int) *ErrTooManyRecords {
	return &ErrTooManyRecords{fmt.Errorf("bulk review of %d records exceeds the limit of %d", count, limit)}
}
