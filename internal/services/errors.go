package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorUnauthorized ErrorCode = "unauthorized"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorEncryption   ErrorCode = "encryption_failed"
	ErrorStorage      ErrorCode = "storage_failed"
	ErrorAudit        ErrorCode = "audit_failed"
)

// ServiceError carries a stable code for transport mapping plus an optional
// wrapped cause.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

func NewInvalidError(msg string) error { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }

// The fatal pipeline failures keep their cause attached so callers can log
// the collaborator error while mapping on the code.
func NewEncryptionError(msg string, err error) error {
	return &ServiceError{Code: ErrorEncryption, Message: msg, Err: err}
}
func NewStorageError(msg string, err error) error {
	return &ServiceError{Code: ErrorStorage, Message: msg, Err: err}
}
func NewAuditError(msg string, err error) error {
	return &ServiceError{Code: ErrorAudit, Message: msg, Err: err}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasErrorCode reports whether err is a ServiceError with the given code.
func HasErrorCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
