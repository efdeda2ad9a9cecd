package domain

import "fmt"

// ValidationError represents a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is enables errors.Is matching on ValidationError.
func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ForbiddenError is returned when the claimed owner does not match the stored one.
type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return e.Reason
}

func (e ForbiddenError) Is(target error) bool {
	_, ok := target.(ForbiddenError)
	if ok {
		return true
	}
	_, ok = target.(*ForbiddenError)
	return ok
}

// UploadError means an attachment was rejected by type or size, or could not be stored.
type UploadError struct {
	Reason string
}

func (e UploadError) Error() string {
	return fmt.Sprintf("upload rejected: %s", e.Reason)
}

func (e UploadError) Is(target error) bool {
	_, ok := target.(UploadError)
	if ok {
		return true
	}
	_, ok = target.(*UploadError)
	return ok
}

// ConflictError is a duplicate-key race between two creators of the same document.
// It never leaves the usecase layer.
type ConflictError struct {
	Resource string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s conflict", e.Resource)
}

func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// StorageUnavailableError is a transient failure of durable storage. Safe to retry.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e StorageUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: storage unavailable", e.Op)
	}
	return fmt.Sprintf("%s: storage unavailable: %v", e.Op, e.Err)
}

func (e StorageUnavailableError) Unwrap() error {
	return e.Err
}

func (e StorageUnavailableError) Is(target error) bool {
	_, ok := target.(StorageUnavailableError)
	if ok {
		return true
	}
	_, ok = target.(*StorageUnavailableError)
	return ok
}

// Sentinels for errors.Is.
var (
	ErrValidation         = ValidationError{}
	ErrNotFound           = NotFoundError{}
	ErrForbidden          = ForbiddenError{}
	ErrUpload             = UploadError{}
	ErrConflict           = ConflictError{}
	ErrStorageUnavailable = StorageUnavailableError{}
)
