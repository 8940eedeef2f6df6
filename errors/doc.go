// Package errors provides structured error types for handlekit.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the native operation, the identifier involved, and a
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCall, errors.KindNativeFailure).
//		Op("get-ip-address").
//		ID(uint64(id)).
//		Code(3).
//		Detail("native call reported failure").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DoubleRelease(uint64(id))
//	err := errors.Disposed("wifi.AddressInformation")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
