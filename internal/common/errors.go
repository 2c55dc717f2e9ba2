package common

import (
	"fmt"

	"github.com/dockyard-vm/dockyard/pkg/dispatch"
)

func NewErrDispatch(err error, category string, reason string, args ...interface{}) dispatch.ErrDispatch {
	cause := fmt.Sprintf(reason, args...)
	dErr := fmt.Errorf("%s: %w", cause, err)

	return dispatch.NewErrDispatch(dErr, category)
}

func NewRetryableErrDispatch(err error, category string, reason string, args ...interface{}) dispatch.ErrDispatch {
	return NewErrDispatch(dispatch.NewErrRetryableError(err), category, reason, args...)
}
