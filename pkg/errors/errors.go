package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodePermission Code = "PERMISSION_DENIED"
	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "CONFLICT"
	CodeNetwork    Code = "NETWORK_ERROR"
	CodeInternal   Code = "INTERNAL_ERROR"
)

// Metadata drives how the UI layer presents a failure.
type Metadata struct {
	Retryable      bool
	UserMessage    string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:      false,
		UserMessage:    "please check the entered details",
		DetailsAllowed: true,
	},
	CodePermission: {
		Retryable:      false,
		UserMessage:    "permission denied",
		DetailsAllowed: false,
	},
	CodeNotFound: {
		Retryable:      false,
		UserMessage:    "not found",
		DetailsAllowed: false,
	},
	CodeConflict: {
		Retryable:      false,
		UserMessage:    "conflict detected",
		DetailsAllowed: false,
	},
	CodeNetwork: {
		Retryable:      true,
		UserMessage:    "network issue, please try again",
		DetailsAllowed: true,
	},
	CodeInternal: {
		Retryable:      true,
		UserMessage:    "something went wrong",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
