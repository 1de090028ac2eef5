package domain

import "time"

type Status string

const (
	StatusBooked    Status = "booked"
	StatusSeated    Status = "seated"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// transitions enumerates every legal status edge. Finished and cancelled
// have no outgoing edges.
var transitions = map[Status][]Status{
	StatusBooked:    {StatusSeated, StatusCancelled},
	StatusSeated:    {StatusFinished, StatusCancelled},
	StatusFinished:  {},
	StatusCancelled: {},
}

// ParseStatus returns the Status for s, or false when s is not one of the
// four recognized statuses.
func ParseStatus(s string) (Status, bool) {
	status := Status(s)
	if _, ok := transitions[status]; !ok {
		return "", false
	}
	return status, true
}

// CanTransition reports whether a reservation currently in from may move to
// to. Both arguments must be recognized statuses.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Reservation struct {
	ID           int64
	FirstName    string
	LastName     string
	MobileNumber string
	Date         string
	Time         string
	People       int
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
