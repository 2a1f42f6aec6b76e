package errors

import "errors"

// This package defines the sentinel errors shared by the service and API layers.
// Services wrap them with context (`fmt.Errorf("%w: ...", ErrValidation)`) and the
// API layer maps them to HTTP status codes with `errors.Is()`.

var (
	// ErrNotFound signifies that a session does not exist or is not owned by the
	// caller. Both cases are reported identically so that the existence of other
	// owners' sessions is never revealed.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation (empty session id, empty rename, empty message).
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation could not be completed because
	// another exchange on the same session is still in flight.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized signifies that the request carried no usable bearer credential.
	// This is typically mapped to a 401 Unauthorized HTTP status.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrGenerationTimeout signifies that the generation backend did not finish
	// within the configured deadline.
	// This is typically mapped to a 504 Gateway Timeout HTTP status.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrGenerationUnavailable signifies that the generation backend could not be
	// reached or answered with a non-success status.
	// This is typically mapped to a 502 Bad Gateway HTTP status.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")

	// ErrInternal signifies an unexpected error on the server. This is a generic
	// error used to prevent leaking sensitive implementation details to the client.
	// This is typically mapped to a 500 Internal Server Error HTTP status.
	ErrInternal = errors.New("internal server error")
)

// Message returns the client-facing text for err. Only validation errors expose
// their own detail; everything else gets a fixed message so internals never leak.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested session was not found."
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrConflict):
		return "Another message is still being answered in this session."
	case errors.Is(err, ErrUnauthorized):
		return "A valid bearer token is required."
	case errors.Is(err, ErrGenerationTimeout):
		return "The tutor took too long to answer. Please try again."
	case errors.Is(err, ErrGenerationUnavailable):
		return "The tutor is currently unavailable. Please try again later."
	default:
		return "An unexpected internal server error occurred."
	}
}
