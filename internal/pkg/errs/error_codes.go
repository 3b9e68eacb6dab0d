/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request or event parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that the request body or event payload is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Presence Errors
const (
	// ErrAlreadyJoined indicates that a connection sent join after it had already joined the floor.
	ErrAlreadyJoined = 2101

	// ErrDisplayNameTooLong indicates that the display name supplied on join exceeded the configured limit.
	ErrDisplayNameTooLong = 2102
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
