package domain

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	CodeValidation       ErrCode = "validation_error"
	CodeInvalidCursor    ErrCode = "invalid_cursor"
	CodeInvalidSortField ErrCode = "invalid_sort_field"
	CodeNotFound         ErrCode = "not_found"
	CodeForbidden        ErrCode = "forbidden"
	CodeInvalidState     ErrCode = "invalid_state"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}

// ErrInvalidCursor keeps the raw cursor so a bad token can be traced back from logs.
func ErrInvalidCursor(raw, reason string) error {
	return &AppError{
		Code:    CodeInvalidCursor,
		Message: "invalid cursor",
		Meta:    map[string]string{"cursor": raw, "reason": reason},
	}
}

func ErrInvalidSortField(field SortField, msg string) error {
	return &AppError{
		Code:    CodeInvalidSortField,
		Message: msg,
		Meta:    map[string]string{"sort": string(field)},
	}
}

func ErrNotFound(msg string) error     { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) error    { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrInvalidState(msg string) error { return &AppError{Code: CodeInvalidState, Message: msg} }

// IsCode reports whether err carries the given AppError code anywhere in its chain.
func IsCode(err error, code ErrCode) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == code
}
