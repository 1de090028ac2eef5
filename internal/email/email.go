package email

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/jcalder/tablebook/internal/kafka"
)

// Sender is a stub notifier; delivery is a log line until a mail provider
// is wired in.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	log.WithFields(log.Fields{
		"type":           event.Type,
		"reservation_id": event.ReservationID,
		"mobile_number":  event.MobileNumber,
		"date":           event.Date,
		"time":           event.Time,
	}).Infof("notify %s %s", event.FirstName, event.LastName)
	return nil
}
