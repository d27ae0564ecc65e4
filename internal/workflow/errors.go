package workflow

import "github.com/hypesin/hypes/internal/domain"

var (
	// ErrSubmissionPending is returned when submit is called while a
	// submission is already in flight.
	ErrSubmissionPending = domain.Conflict("workflow.submit", "A submission is already in progress")

	// ErrAlreadySucceeded is returned when submit is called after the
	// workflow has already succeeded and navigated away.
	ErrAlreadySucceeded = domain.Conflict("workflow.submit", "This form has already been submitted")

	// ErrTornDown is returned by any operation on a screen after teardown.
	ErrTornDown = domain.Gone("workflow", "This page has expired. Please reload and try again.")

	// ErrUnknownField is returned when binding a field the form does not have.
	ErrUnknownField = domain.Invalid("workflow.bind", "unknown field")
)
