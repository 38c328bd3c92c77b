package exitcode

import (
	"errors"
	"os"

	"github.com/spf13/pflag"
)

// Coder is an interface to control what value Get returns.
type Coder interface {
	error
	ExitCode() int
}

// Get gets the exit code associated with an error. Cases:
//
//	nil => 0
//	errors implementing Coder => value returned by ExitCode
//	pflag.ErrHelp => 2
//	all other errors => 1
func Get(err error) int {
	if err == nil {
		return 0
	}

	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}

	if errors.Is(err, pflag.ErrHelp) {
		return 2
	}

	return 1
}

// Set wraps an error in a Coder, setting its error code.
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return coder{error: err, code: code}
}

// Reported is like Set but also marks the error as already shown to the
// user. The messages of a failed bind go through the logger, so the command
// only needs to pick the exit code.
func Reported(err error, code int) error {
	if err == nil {
		return nil
	}
	return coder{error: err, code: code, reported: true}
}

func IsReported(err error) bool {
	var c coder
	return errors.As(err, &c) && c.reported
}

var _ Coder = coder{}

type coder struct {
	error
	code     int
	reported bool
}

func (co coder) ExitCode() int {
	return co.code
}

func (co coder) Unwrap() error {
	return co.error
}

// Exit is a convenience function that calls os.Exit
// with the exit code associated with err.
func Exit(err error) {
	os.Exit(Get(err))
}
