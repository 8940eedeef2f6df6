package native

import (
	"github.com/wippyai/handlekit/errors"
)

// Status is the out-of-band failure slot a native call fills in.
// A zero Status means success.
type Status struct {
	Message string
	Code    int32
}

// Fail records a failure on st.
func (st *Status) Fail(code int32, msg string) {
	st.Code = code
	st.Message = msg
}

// Pending reports whether a failure has been recorded.
func (st *Status) Pending() bool {
	return st.Code != 0
}

// Err retrieves the pending failure as an error and clears the slot.
func (st *Status) Err(op string) error {
	if !st.Pending() {
		return nil
	}
	err := errors.NativeFailure(op, st.Code, st.Message)
	*st = Status{}
	return err
}

// Call invokes fn with a fresh Status and surfaces any pending failure
// immediately after it returns. On failure the zero value of T is returned.
func Call[T any](op string, fn func(*Status) T) (T, error) {
	var st Status
	v := fn(&st)
	if err := st.Err(op); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Do is Call for native functions without a result.
func Do(op string, fn func(*Status)) error {
	var st Status
	fn(&st)
	return st.Err(op)
}
