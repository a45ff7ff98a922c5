package errors

import (
	"fmt"
	"os"
	"strings"

	"chemclip/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

const (
	ExitCodeSuccess              ExitCode = 0
	ExitCodeGeneral              ExitCode = 1
	ExitCodeConfig               ExitCode = 2
	ExitCodeDecode               ExitCode = 3
	ExitCodeNativeResource       ExitCode = 4
	ExitCodeClipboardUnavailable ExitCode = 5
	ExitCodeValidation           ExitCode = 6
	ExitCodeFileOperation        ExitCode = 7
	ExitCodeCancellation         ExitCode = 8
	ExitCodeInvalidContent       ExitCode = 9
	ExitCodeUnsupportedPlatform  ExitCode = 10
)

// Standardized error messages for consistent user-facing errors
const (
	ErrMsgUnsupportedPlatform = "chemistry clipboard is only supported on Windows"
	ErrMsgClipboardBusy       = "OpenClipboard failed"
	ErrMsgEmptyClipboard      = "EmptyClipboard failed"
	ErrMsgInvalidImage        = "Empty image"
	ErrMsgEmptyBinary         = "Empty CDX data"
	ErrMsgSurfaceCreation     = "CreateDIBSection failed"
	ErrMsgMetafileCreation    = "CreateEnhMetaFile failed"
	ErrMsgHistoryFailed       = "History operation failed"
	ErrMsgInvalidInput        = "Invalid input provided"
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func New(code ExitCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

func NewWithSuggestion(code ExitCode, message string, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	if wrapped, ok := err.(*Error); ok {
		return &Error{
			Code:       wrapped.Code,
			Message:    message + ": " + wrapped.Message,
			Underlying: wrapped.Underlying,
			Suggestion: wrapped.Suggestion,
		}
	}

	return &Error{
		Code:       ExitCodeGeneral,
		Message:    message,
		Underlying: err,
	}
}

func WrapWithCode(err error, code ExitCode, message string) *Error {
	if err == nil {
		return nil
	}

	var errMsg string
	if wrapped, ok := err.(*Error); ok {
		errMsg = wrapped.Message
		if wrapped.Underlying != nil {
			errMsg += ": " + wrapped.Underlying.Error()
		}
	} else {
		errMsg = err.Error()
	}

	return &Error{
		Code:       code,
		Message:    message + ": " + errMsg,
		Underlying: err,
	}
}

// IsExitCode reports whether err, or any *Error it wraps, carries code.
func IsExitCode(err error, code ExitCode) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// HandleReturn processes an error and returns the appropriate exit code.
// It does not call os.Exit; the caller is responsible for exiting the program.
func HandleReturn(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral
	var message string
	var suggestion string

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
		message = e.Error()
		suggestion = e.Suggestion

		if e.Underlying != nil {
			logger.Error().Err(e.Underlying).Msg(e.Message)
		} else {
			logger.Error().Msg(e.Message)
		}
	} else {
		message = err.Error()
		logger.Error().Msg(message)
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(os.Stderr)
	red.Fprint(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, message)

	if suggestion != "" {
		yellow.Fprint(os.Stderr, "Suggestion: ")
		lines := strings.Split(suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				fmt.Fprintln(os.Stderr, line)
			} else {
				if strings.HasPrefix(line, "  -") {
					cyan.Fprintln(os.Stderr, line)
				} else {
					fmt.Fprintln(os.Stderr, "           "+line)
				}
			}
		}
	}

	fmt.Fprintln(os.Stderr)

	return exitCode
}

// HandleQuietReturn processes an error quietly and returns the appropriate exit code.
func HandleQuietReturn(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
	} else {
		logger.Error().Err(err).Msg("operation failed")
	}

	return exitCode
}

func DecodeError(err error) *Error {
	return &Error{
		Code:       ExitCodeDecode,
		Message:    "failed to decode image",
		Underlying: err,
		Suggestion: "Supported image formats: PNG, JPEG, GIF, BMP, TIFF, WebP.",
	}
}

func InvalidImageError(width, height int) *Error {
	return &Error{
		Code:    ExitCodeDecode,
		Message: fmt.Sprintf("%s (%dx%d)", ErrMsgInvalidImage, width, height),
	}
}

func NativeResourceError(call string, err error) *Error {
	return &Error{
		Code:       ExitCodeNativeResource,
		Message:    call + " failed",
		Underlying: err,
	}
}

func SurfaceCreationError(err error) *Error {
	return &Error{
		Code:       ExitCodeNativeResource,
		Message:    ErrMsgSurfaceCreation,
		Underlying: err,
	}
}

func MetafileCreationError(err error) *Error {
	return &Error{
		Code:       ExitCodeNativeResource,
		Message:    ErrMsgMetafileCreation,
		Underlying: err,
	}
}

func ClipboardUnavailableError(message string, err error) *Error {
	return &Error{
		Code:       ExitCodeClipboardUnavailable,
		Message:    message,
		Underlying: err,
		Suggestion: "Another application is holding the clipboard. Try again in a moment or use --retries.",
	}
}

func InvalidContentError(message string) *Error {
	return &Error{
		Code:    ExitCodeInvalidContent,
		Message: message,
	}
}

func UnsupportedPlatformError() *Error {
	return &Error{
		Code:    ExitCodeUnsupportedPlatform,
		Message: ErrMsgUnsupportedPlatform,
	}
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Suggestion: "Check your configuration file or set the required environment variables.",
	}
}

func ValidationError(message string) *Error {
	return &Error{
		Code:    ExitCodeValidation,
		Message: message,
	}
}

func FileError(path string, err error) *Error {
	return &Error{
		Code:       ExitCodeFileOperation,
		Message:    fmt.Sprintf("failed to read %s", path),
		Underlying: err,
	}
}

func CancelledError(operation string) *Error {
	return &Error{
		Code:       ExitCodeCancellation,
		Message:    fmt.Sprintf("Operation cancelled: %s", operation),
		Suggestion: "The operation was interrupted. The clipboard was not changed.",
	}
}
