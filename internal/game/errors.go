package game

import (
	"errors"
	"fmt"
)

// Code identifies why an operation was rejected
type Code string

// Rejection codes. A rejected operation leaves the session unchanged.
const (
	CodeInvalidState          Code = "INVALID_STATE"
	CodeNotFound              Code = "NOT_FOUND"
	CodeLimitExceeded         Code = "LIMIT_EXCEEDED"
	CodeInsufficientSelection Code = "INSUFFICIENT_SELECTION"
	CodeNoPendingPair         Code = "NO_PENDING_PAIR"
)

// Error is a recoverable rejection of a session operation.
// Limit carries the relevant bound for LIMIT_EXCEEDED and INSUFFICIENT_SELECTION.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Limit   int    `json:"limit,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is
var (
	ErrInvalidState          = &Error{Code: CodeInvalidState, Message: "invalid session state"}
	ErrNotFound              = &Error{Code: CodeNotFound, Message: "book not found"}
	ErrLimitExceeded         = &Error{Code: CodeLimitExceeded, Message: "selection limit exceeded"}
	ErrInsufficientSelection = &Error{Code: CodeInsufficientSelection, Message: "not enough books selected"}
	ErrNoPendingPair         = &Error{Code: CodeNoPendingPair, Message: "no pending comparison pair"}
)

// ErrNoCandidates is returned by Start when the catalog cannot supply enough
// age-appropriate books. It is a hard failure, not a rejection.
var ErrNoCandidates = errors.New("not enough age-appropriate books in catalog")

// ErrUnknownMode is returned for a mode other than grid or comparison
var ErrUnknownMode = errors.New("unknown game mode")

func invalidState(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func notFound(bookID int64) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("book %d is not a candidate in this session", bookID)}
}

func limitExceeded(limit int) *Error {
	return &Error{Code: CodeLimitExceeded, Message: fmt.Sprintf("at most %d books can be selected", limit), Limit: limit}
}

func insufficientSelection(minimum int) *Error {
	return &Error{Code: CodeInsufficientSelection, Message: fmt.Sprintf("select at least %d books", minimum), Limit: minimum}
}
