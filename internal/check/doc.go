// Package check holds repository-wide static checks run as tests.
//
// The checks load the module's packages with golang.org/x/tools/go/packages
// and enforce that native release and finalization only happen inside
// package handle.
package check
