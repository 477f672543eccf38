package cl

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is returned (wrapped with details) when a required input is nil, empty or malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDeviceNotFound is returned (wrapped with details) when a filter pipeline, or an explicit list of devices,
	// yields no usable device.
	ErrDeviceNotFound = errors.New("device not found")
)

// NativeError is returned when a native API call returns a non-success status.
//
// It is usually wrapped with a stack trace (see github.com/pkg/errors), use errors.As to retrieve it,
// or StatusOf to get the native Status.
type NativeError struct {
	// Op is the name of the native function that failed, e.g. "clCreateContext".
	Op string

	// Status returned by the native function.
	Status Status
}

// Error implements the error interface.
func (e *NativeError) Error() string {
	return fmt.Sprintf("OpenCL error in %s (status=%d %s)", e.Op, int32(e.Status), e.Status)
}

// NewNativeError converts a native status returned by op to a Go error, with a stack trace.
// If status is StatusSuccess, it returns nil.
func NewNativeError(op string, status Status) error {
	if status == StatusSuccess {
		return nil
	}
	return errors.WithStack(&NativeError{Op: op, Status: status})
}

// StatusOf returns the native Status of err, if it is (or wraps) a *NativeError.
func StatusOf(err error) (status Status, ok bool) {
	var nErr *NativeError
	if errors.As(err, &nErr) {
		return nErr.Status, true
	}
	return StatusSuccess, false
}

// invalidArgumentf returns an ErrInvalidArgument error annotated with the formatted message.
func invalidArgumentf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// deviceNotFoundf returns an ErrDeviceNotFound error annotated with the formatted message.
func deviceNotFoundf(format string, args ...any) error {
	return errors.Wrapf(ErrDeviceNotFound, format, args...)
}
