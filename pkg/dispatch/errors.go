package dispatch

import (
	"errors"
	"fmt"
)

// ErrDispatch

type ErrDispatch struct {
	error
	Category string
}

const (
	UnknownCategory     = "unknown"
	DeserializeCategory = "deserialize"
	PanicCategory       = "panic"
	ExecutionCategory   = "execution"
)

func NewErrDispatch(err error, category string) ErrDispatch {
	return ErrDispatch{
		error:    err,
		Category: category,
	}
}

func (e ErrDispatch) Unwrap() error {
	return e.error
}

// ErrRetryableError

var ErrRetryableError = errors.New("retryable error")

func NewErrRetryableError(err error) error {
	return fmt.Errorf("%w: %w", ErrRetryableError, err)
}

func NewRetryableErrDispatch(err error, category string) ErrDispatch {
	return NewErrDispatch(NewErrRetryableError(err), category)
}

func categoryOf(err error) string {
	dErr := ErrDispatch{}
	if errors.As(err, &dErr) && dErr.Category != "" {
		return dErr.Category
	}

	return UnknownCategory
}
