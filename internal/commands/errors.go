package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
)

// wrapValidationError tags err as a validation failure. An explicit code
// always wins, even over an already wrapped error.
func wrapValidationError(err error, code string) error {
	if err == nil {
		return nil
	}
	if code == "" {
		if goerrors.IsWrapped(err) {
			return err
		}
		code = commandValidationCode
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "template command rejected").WithTextCode(code)
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	message, code := "command context error", commandContextErrorCode
	if errors.Is(err, context.Canceled) {
		message, code = "command execution cancelled", commandContextCanceled
	} else if errors.Is(err, context.DeadlineExceeded) {
		message, code = "command execution deadline exceeded", commandContextTimeout
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, message).WithTextCode(code)
}

func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").WithTextCode(commandExecuteFailed)
}
