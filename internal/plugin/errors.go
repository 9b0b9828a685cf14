package plugin

import (
	"errors"
	"fmt"

	"github.com/ironsheep/vision-tools-plugin/internal/codec"
)

// ErrorKind classifies a failed invocation.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalidArguments
	KindUnknownTool
	KindUnknownCapabilityType
	KindInvalidPath
	KindImageLoadFailure
	KindProcessingFailure
	KindSaveFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArguments:
		return "invalid_arguments"
	case KindUnknownTool:
		return "unknown_tool"
	case KindUnknownCapabilityType:
		return "unknown_capability_type"
	case KindInvalidPath:
		return "invalid_path"
	case KindImageLoadFailure:
		return "image_load_failure"
	case KindProcessingFailure:
		return "processing_failure"
	case KindSaveFailure:
		return "save_failure"
	default:
		return "internal"
	}
}

// Host-visible messages.
const (
	msgInvalidArguments      = "Invalid arguments"
	msgUnknownCapabilityType = "Unknown capability type"
	msgInvalidPath           = "Invalid path: path outside working directory"
	msgImageLoadFailure      = "Failed to load image"
	msgSaveFailure           = "Failed to save image"
	msgInternal              = "Internal error"
)

// Error is a failure reported to the host. Message is all the host sees;
// Err keeps the cause for the log.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidArguments(err error) *Error {
	return &Error{Kind: KindInvalidArguments, Message: msgInvalidArguments, Err: err}
}

func unknownTool(id string) *Error {
	return &Error{Kind: KindUnknownTool, Message: "Unknown tool: " + id}
}

func unknownCapabilityType(kind string) *Error {
	return &Error{Kind: KindUnknownCapabilityType, Message: msgUnknownCapabilityType, Err: fmt.Errorf("kind %q", kind)}
}

func invalidPath(err error) *Error {
	return &Error{Kind: KindInvalidPath, Message: msgInvalidPath, Err: err}
}

func imageLoadFailure(err error) *Error {
	return &Error{Kind: KindImageLoadFailure, Message: msgImageLoadFailure, Err: err}
}

func processingFailure(message string, err error) *Error {
	return &Error{Kind: KindProcessingFailure, Message: message, Err: err}
}

func saveFailure(err error) *Error {
	return &Error{Kind: KindSaveFailure, Message: msgSaveFailure, Err: err}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: msgInternal, Err: err}
}

// classify maps any handler error onto an *Error. Unclassified errors are
// internal.
func classify(err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	switch {
	case errors.Is(err, codec.ErrInvalidArguments):
		return invalidArguments(err)
	case errors.Is(err, codec.ErrPathOutsideWorkingDirectory):
		return invalidPath(err)
	}
	return internalError(err)
}
