package models

import (
	"fmt"
	"net/http"
)

// ResultKind tags the outcome of a consultation or hearing operation
type ResultKind int

// Result kinds
const (
	ResultAccepted ResultKind = iota
	ResultNoContent
	ResultNotFound
	ResultUnauthorized
	ResultBadRequest
	ResultProviderError
)

// Result is a recoverable outcome. Faults that must abort the request are
// returned as errors next to it instead.
type Result struct {
	Kind   ResultKind
	Reason string
	// StatusCode is only set for provider errors and is passed through untouched
	StatusCode   int
	InvitationID string
}

// Accepted means a transfer was initiated
func Accepted() Result { return Result{Kind: ResultAccepted} }

// NoContent means the request was recorded but nothing moved yet
func NoContent() Result { return Result{Kind: ResultNoContent} }

// NotFound means a conference, participant or endpoint did not resolve
func NotFound(reason string) Result { return Result{Kind: ResultNotFound, Reason: reason} }

// Unauthorized means the caller may not perform the operation
func Unauthorized(reason string) Result { return Result{Kind: ResultUnauthorized, Reason: reason} }

// BadRequest is a client error, such as a screening violation
func BadRequest(reason string) Result { return Result{Kind: ResultBadRequest, Reason: reason} }

// ProviderFailure carries the video bridge status and message verbatim
func ProviderFailure(status int, message string) Result {
	return Result{Kind: ResultProviderError, StatusCode: status, Reason: message}
}

// WithInvitation attaches the invitation id the caller needs to answer later
func (r Result) WithInvitation(id string) Result {
	r.InvitationID = id
	return r
}

// HTTPStatus maps the result onto a response status
func (r Result) HTTPStatus() int {
	switch r.Kind {
	case ResultAccepted:
		return http.StatusAccepted
	case ResultNoContent:
		return http.StatusNoContent
	case ResultNotFound:
		return http.StatusNotFound
	case ResultUnauthorized:
		return http.StatusUnauthorized
	case ResultBadRequest:
		return http.StatusBadRequest
	case ResultProviderError:
		if r.StatusCode == 0 {
			return http.StatusBadGateway
		}
		return r.StatusCode
	}
	return http.StatusInternalServerError
}

// IsSuccess is true for Accepted and NoContent
func (r Result) IsSuccess() bool {
	return r.Kind == ResultAccepted || r.Kind == ResultNoContent
}

func (r Result) String() string {
	switch r.Kind {
	case ResultAccepted:
		return "Accepted"
	case ResultNoContent:
		return "NoContent"
	case ResultNotFound:
		return fmt.Sprintf("NotFound(%s)", r.Reason)
	case ResultUnauthorized:
		return fmt.Sprintf("Unauthorized(%s)", r.Reason)
	case ResultBadRequest:
		return fmt.Sprintf("BadRequest(%s)", r.Reason)
	case ResultProviderError:
		return fmt.Sprintf("ProviderError(%d, %s)", r.StatusCode, r.Reason)
	}
	return "Unknown"
}
