package domain

import "fmt"

type ErrorKind string

const (
	KindMalformedRequest     ErrorKind = "malformed_request"
	KindInvalidField         ErrorKind = "invalid_field"
	KindMissingField         ErrorKind = "missing_field"
	KindInvalidDate          ErrorKind = "invalid_date"
	KindInvalidTime          ErrorKind = "invalid_time"
	KindInvalidPartySize     ErrorKind = "invalid_party_size"
	KindClosedDay            ErrorKind = "closed_day"
	KindPastDate             ErrorKind = "past_date"
	KindOutsideHours         ErrorKind = "outside_hours"
	KindInvalidInitialStatus ErrorKind = "invalid_initial_status"
	KindInvalidStatus        ErrorKind = "invalid_status"
	KindReservationFinished  ErrorKind = "reservation_finished"
	KindNotFound             ErrorKind = "not_found"
)

// Error is a rejection produced by the validation pipeline or the status
// lifecycle. The message is surfaced to clients verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
