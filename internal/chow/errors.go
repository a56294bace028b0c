package chow

import "strings"

// Error codes used across repository boundaries.
const (
	CodeNotFound = "NOT_FOUND"
	CodeBadReq   = "BAD_REQ"
	CodeDB       = "DB"
	CodeInternal = "INTERNAL"
)

// Error is a single tagged domain error.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

// Errors is the error-list type returned by all repository operations.
// A nil Errors means the operation succeeded.
type Errors []*Error

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// NotFound builds a single-element NOT_FOUND error list.
func NotFound(message string) Errors {
	return Errors{{Message: message, Code: CodeNotFound}}
}

// BadReq builds a single-element BAD_REQ error list.
func BadReq(message string) Errors {
	return Errors{{Message: message, Code: CodeBadReq}}
}

// DBErr builds a single-element DB error list.
func DBErr(message string) Errors {
	return Errors{{Message: message, Code: CodeDB}}
}

// Internal builds a single-element INTERNAL error list.
func Internal(message string) Errors {
	return Errors{{Message: message, Code: CodeInternal}}
}
