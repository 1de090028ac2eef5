package reservation

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jcalder/tablebook/internal/domain"
)

const (
	dateLayout = "2006-01-02"

	openingHour   = 10
	openingMinute = 30
	closingHour   = 21
	closingMinute = 30

	closedWeekday = time.Tuesday
)

var knownFields = map[string]bool{
	"reservation_id":   true,
	"first_name":       true,
	"last_name":        true,
	"mobile_number":    true,
	"reservation_date": true,
	"reservation_time": true,
	"people":           true,
	"status":           true,
	"created_at":       true,
	"updated_at":       true,
}

var requiredFields = []string{
	"first_name",
	"last_name",
	"mobile_number",
	"reservation_date",
	"reservation_time",
	"people",
}

// The hour pattern is deliberately loose (20-29 match); the operating-hours
// check rejects what slips through.
var timePattern = regexp.MustCompile(`^[0-2]\d:[0-5]\d$`)

// payload carries a raw request body through the check chain. Checks store
// parsed values as they pass so later checks do not reparse.
type payload struct {
	data map[string]any
	now  time.Time

	date   time.Time
	hour   int
	minute int
	people int
}

func (p *payload) str(key string) string {
	s, _ := p.data[key].(string)
	return s
}

type check func(*payload) *domain.Error

// reservationChecks run in order; the first failure aborts the chain and no
// later check is evaluated.
var reservationChecks = []check{
	hasData,
	hasOnlyKnownFields,
	hasRequiredFields,
	hasValidDate,
	hasValidTime,
	hasPositivePeople,
	notOnClosedDay,
	isInFuture,
	withinOperatingHours,
	hasBookedStatus,
}

// validate runs every check against data and, on acceptance, returns the
// normalized reservation with status defaulted to booked.
func validate(data map[string]any, now time.Time) (*domain.Reservation, *domain.Error) {
	p := &payload{data: data, now: now}
	for _, c := range reservationChecks {
		if err := c(p); err != nil {
			return nil, err
		}
	}
	return &domain.Reservation{
		FirstName:    p.str("first_name"),
		LastName:     p.str("last_name"),
		MobileNumber: p.str("mobile_number"),
		Date:         p.str("reservation_date"),
		Time:         p.str("reservation_time"),
		People:       p.people,
		Status:       domain.StatusBooked,
	}, nil
}

func hasData(p *payload) *domain.Error {
	if p.data == nil {
		return domain.NewError(domain.KindMalformedRequest, "Body must have data property.")
	}
	return nil
}

func hasOnlyKnownFields(p *payload) *domain.Error {
	var invalid []string
	for field := range p.data {
		if !knownFields[field] {
			invalid = append(invalid, field)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return domain.NewError(domain.KindInvalidField, "Invalid field(s): %s", strings.Join(invalid, ", "))
	}
	return nil
}

func hasRequiredFields(p *payload) *domain.Error {
	for _, field := range requiredFields {
		v, ok := p.data[field]
		if !ok || v == nil {
			return domain.NewError(domain.KindMissingField, "%s is required", field)
		}
		if s, isString := v.(string); isString && s == "" {
			return domain.NewError(domain.KindMissingField, "%s is required", field)
		}
	}
	return nil
}

func hasValidDate(p *payload) *domain.Error {
	date, err := time.Parse(dateLayout, p.str("reservation_date"))
	if err != nil {
		return domain.NewError(domain.KindInvalidDate, "reservation_date must be a valid date")
	}
	p.date = date
	return nil
}

func hasValidTime(p *payload) *domain.Error {
	t := p.str("reservation_time")
	if !timePattern.MatchString(t) {
		return domain.NewError(domain.KindInvalidTime, "reservation_time must be a valid time")
	}
	p.hour, _ = strconv.Atoi(t[:2])
	p.minute, _ = strconv.Atoi(t[3:])
	return nil
}

func hasPositivePeople(p *payload) *domain.Error {
	switch v := p.data["people"].(type) {
	case float64:
		if v > 0 && v == math.Trunc(v) {
			p.people = int(v)
			return nil
		}
	case int:
		if v > 0 {
			p.people = v
			return nil
		}
	}
	return domain.NewError(domain.KindInvalidPartySize, "Invalid people field. People must be a positive integer greater than 0")
}

func notOnClosedDay(p *payload) *domain.Error {
	if p.date.Weekday() == closedWeekday {
		return domain.NewError(domain.KindClosedDay, "We are closed on Tuesdays")
	}
	return nil
}

// isInFuture anchors the comparison to the last second of the requested
// minute so a reservation submitted within that same minute still passes.
func isInFuture(p *payload) *domain.Error {
	at := time.Date(p.date.Year(), p.date.Month(), p.date.Day(), p.hour, p.minute, 59, 0, p.now.Location())
	if p.now.After(at) {
		return domain.NewError(domain.KindPastDate, "reservation_date must be set in the future")
	}
	return nil
}

func withinOperatingHours(p *payload) *domain.Error {
	open := false
	switch {
	case p.hour > openingHour && p.hour < closingHour:
		open = true
	case p.hour == openingHour && p.minute >= openingMinute:
		open = true
	case p.hour == closingHour && p.minute <= closingMinute:
		open = true
	}
	if !open {
		return domain.NewError(domain.KindOutsideHours, "Reservations must be made between 10:30am to 9:30pm")
	}
	return nil
}

func hasBookedStatus(p *payload) *domain.Error {
	v, ok := p.data["status"]
	if !ok || v == nil {
		return nil
	}
	if s, isString := v.(string); isString && (s == "" || s == string(domain.StatusBooked)) {
		return nil
	}
	return domain.NewError(domain.KindInvalidInitialStatus, "A new reservation cannot have a status of %v", v)
}
