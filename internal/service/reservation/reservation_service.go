package reservation

import (
	"context"
	"errors"
	"strconv"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"

	"github.com/jcalder/tablebook/internal/domain"
	"github.com/jcalder/tablebook/internal/kafka"
	"github.com/jcalder/tablebook/internal/repository"
)

type ReservationUseCase interface {
	Create(ctx context.Context, data map[string]any) (*domain.Reservation, error)
	Get(ctx context.Context, id int64) (*domain.Reservation, error)
	List(ctx context.Context, date, mobileNumber string) ([]domain.Reservation, error)
	Update(ctx context.Context, id int64, data map[string]any) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Reservation, error)
	FinishPastSeated(ctx context.Context) ([]domain.Reservation, error)
}

type Cache interface {
	GetDay(ctx context.Context, date string) ([]domain.Reservation, error)
	SetDay(ctx context.Context, date string, reservations []domain.Reservation) error
	DropDay(ctx context.Context, date string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Service struct {
	reservations       repository.ReservationRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	now                func() time.Time
}

type Option func(*Service)

func WithNotificationsTopic(topic string) Option {
	return func(s *Service) {
		s.notificationsTopic = topic
	}
}

// WithClock replaces the wall clock used by the future-date check and the
// default list date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	reservations repository.ReservationRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	opts ...Option,
) *Service {
	service := &Service{
		reservations: reservations,
		cache:        cache,
		producer:     producer,
		eventsTopic:  eventsTopic,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *Service) Create(ctx context.Context, data map[string]any) (*domain.Reservation, error) {
	reservation, verr := validate(data, s.now())
	if verr != nil {
		return nil, verr
	}

	if err := s.reservations.Create(ctx, reservation); err != nil {
		return nil, err
	}

	s.dropDay(ctx, reservation.Date)
	s.publish(ctx, "reservation_created", reservation)
	return reservation, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Reservation, error) {
	return s.find(ctx, id)
}

// List resolves the three query shapes: an explicit date, a phone-number
// fragment, or neither, which defaults to today. Date listings exclude
// finished and cancelled reservations and go through the day cache.
func (s *Service) List(ctx context.Context, date, mobileNumber string) ([]domain.Reservation, error) {
	if date == "" && mobileNumber != "" {
		return s.reservations.SearchByPhone(ctx, digitsOnly(mobileNumber))
	}
	if date == "" {
		date = s.now().Format(dateLayout)
	}

	if s.cache != nil {
		if cached, err := s.cache.GetDay(ctx, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	reservations, err := s.reservations.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetDay(ctx, date, reservations)
	}
	return reservations, nil
}

func (s *Service) Update(ctx context.Context, id int64, data map[string]any) (*domain.Reservation, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.StatusFinished {
		return nil, domain.NewError(domain.KindReservationFinished, "Reservations that are finished cannot be updated.")
	}

	reservation, verr := validate(data, s.now())
	if verr != nil {
		return nil, verr
	}
	reservation.ID = current.ID
	if _, ok := data["status"]; !ok {
		reservation.Status = current.Status
	}

	updated, err := s.reservations.Update(ctx, reservation)
	if err != nil {
		return nil, err
	}

	if current.Date != updated.Date {
		s.dropDay(ctx, current.Date)
	}
	s.dropDay(ctx, updated.Date)
	s.publish(ctx, "reservation_updated", updated)
	return updated, nil
}

// UpdateStatus guards the lifecycle on the status-only pathway. The current
// status is re-read before the transition check; field-level validation does
// not run here.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Reservation, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	target, ok := domain.ParseStatus(status)
	if !ok {
		return nil, domain.NewError(domain.KindInvalidStatus, "%s is not a valid status. Status must be booked, seated, or finished", status)
	}
	if current.Status == domain.StatusFinished {
		return nil, domain.NewError(domain.KindReservationFinished, "Reservations that are finished cannot be updated.")
	}
	if !domain.CanTransition(current.Status, target) {
		return nil, domain.NewError(domain.KindInvalidStatus, "Status cannot change from %s to %s.", current.Status, target)
	}

	updated, err := s.reservations.UpdateStatus(ctx, id, target)
	if err != nil {
		return nil, err
	}

	s.dropDay(ctx, updated.Date)
	s.publish(ctx, "reservation_"+string(target), updated)
	return updated, nil
}

// FinishPastSeated closes out reservations still seated on a past service
// day. Used by the worker sweep.
func (s *Service) FinishPastSeated(ctx context.Context) ([]domain.Reservation, error) {
	finished, err := s.reservations.FinishSeatedBefore(ctx, s.now().Format(dateLayout))
	if err != nil {
		return nil, err
	}
	for i := range finished {
		s.dropDay(ctx, finished[i].Date)
		s.publish(ctx, "reservation_finished", &finished[i])
	}
	return finished, nil
}

func (s *Service) find(ctx context.Context, id int64) (*domain.Reservation, error) {
	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewError(domain.KindNotFound, "Reservation %d cannot be found.", id)
		}
		return nil, err
	}
	return reservation, nil
}

func (s *Service) dropDay(ctx context.Context, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DropDay(ctx, date); err != nil {
		log.WithError(err).WithField("date", date).Warn("drop day cache")
	}
}

func (s *Service) publish(ctx context.Context, eventType string, reservation *domain.Reservation) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID,
		FirstName:     reservation.FirstName,
		LastName:      reservation.LastName,
		MobileNumber:  reservation.MobileNumber,
		Date:          reservation.Date,
		Time:          reservation.Time,
		People:        reservation.People,
		Status:        string(reservation.Status),
	}
	key := strconv.FormatInt(reservation.ID, 10)
	if err := s.producer.Publish(ctx, s.eventsTopic, key, event); err != nil {
		log.WithError(err).WithField("reservation_id", reservation.ID).Warnf("publish %s event", eventType)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			log.WithError(err).WithField("reservation_id", reservation.ID).Warnf("publish %s notification", eventType)
		}
	}
}

func digitsOnly(mobileNumber string) string {
	var digits []rune
	for _, r := range mobileNumber {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	return string(digits)
}

var _ ReservationUseCase = (*Service)(nil)
