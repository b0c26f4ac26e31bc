package main

import "errors"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type exitCoder interface {
	ExitCode() int
}

type codedError struct {
	code int
	err  error
}

func (e codedError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e codedError) Unwrap() error {
	return e.err
}

func (e codedError) ExitCode() int {
	if e.code == 0 {
		return exitError
	}
	return e.code
}

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return codedError{code: code, err: err}
}

func usageError(err error) error {
	return withExitCode(err, exitUsage)
}

func exitCodeForError(err error) int {
	if err == nil {
		return exitOK
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return exitError
}
