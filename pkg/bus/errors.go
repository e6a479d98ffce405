package bus

import "github.com/chris-alexander-pop/system-design-library/pkg/errors"

// Error codes for bus operations.
const (
	CodeInvalidConfiguration = "BUS_INVALID_CONFIGURATION"
	CodePublishFailed        = "BUS_PUBLISH_FAILED"
	CodeRequestTimeout       = "BUS_REQUEST_TIMEOUT"
	CodeRequestCancelled     = "BUS_REQUEST_CANCELLED"
	CodeHandlerFaulted       = "BUS_HANDLER_FAULTED"
	CodeSerializationFailed  = "BUS_SERIALIZATION_FAILED"
	CodeBusShutdown          = "BUS_SHUTDOWN"
)

// ErrInvalidConfiguration reports a Builder.Build validation failure.
func ErrInvalidConfiguration(reason string) *errors.AppError {
	return errors.New(CodeInvalidConfiguration, "invalid bus configuration: "+reason, nil)
}

// ErrPublishFailed reports a transport rejecting a publish.
func ErrPublishFailed(reason string, cause error) *errors.AppError {
	return errors.New(CodePublishFailed, "publish failed: "+reason, cause)
}

// ErrRequestTimeout reports a Send whose deadline elapsed before a response arrived.
func ErrRequestTimeout(correlationID string) *errors.AppError {
	return errors.New(CodeRequestTimeout, "request timed out: "+correlationID, nil)
}

// ErrRequestCancelled reports caller-triggered cancellation of a Send; a
// Send interrupted by Dispose fails with ErrBusShutdown instead.
func ErrRequestCancelled(correlationID string) *errors.AppError {
	return errors.New(CodeRequestCancelled, "request cancelled: "+correlationID, nil)
}

// ErrHandlerFaulted reports a server-side handler fault surfaced to the caller.
func ErrHandlerFaulted(message string) *errors.AppError {
	return errors.New(CodeHandlerFaulted, "handler faulted: "+message, nil)
}

// ErrSerializationFailed reports a Serializer error, either when encoding an
// outbound message or when decoding an inbound payload.
func ErrSerializationFailed(cause error) *errors.AppError {
	return errors.New(CodeSerializationFailed, "failed to serialize message", cause)
}

// ErrBusShutdown reports a pending request failed by Dispose.
func ErrBusShutdown() *errors.AppError {
	return errors.New(CodeBusShutdown, "bus is shutting down", nil)
}

// HasRequestTimedOut reports whether err is (or wraps) a request timeout,
// as opposed to cancellation, a handler fault, or shutdown.
func HasRequestTimedOut(err error) bool {
	return errors.HasCode(err, CodeRequestTimeout)
}
