package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jcalder/tablebook/internal/domain"
	"github.com/jcalder/tablebook/internal/repository"
)

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListByDate(ctx context.Context, date string) ([]domain.Reservation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) SearchByPhone(ctx context.Context, digits string) ([]domain.Reservation, error) {
	args := m.Called(ctx, digits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}

func (m *MockReservationRepository) Update(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	args := m.Called(ctx, reservation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Reservation, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) FinishSeatedBefore(ctx context.Context, date string) ([]domain.Reservation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetDay(ctx context.Context, date string) ([]domain.Reservation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockCache) SetDay(ctx context.Context, date string, reservations []domain.Reservation) error {
	args := m.Called(ctx, date, reservations)
	return args.Error(0)
}

func (m *MockCache) DropDay(ctx context.Context, date string) error {
	args := m.Called(ctx, date)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

func newTestService(repo *MockReservationRepository, cache *MockCache, producer *MockProducer) *Service {
	return NewService(repo, cache, producer, "reservations",
		WithNotificationsTopic("notifications"),
		WithClock(fixedClock()),
	)
}

func TestService_Create_Success(t *testing.T) {
	repo := &MockReservationRepository{}
	cache := &MockCache{}
	producer := &MockProducer{}
	svc := newTestService(repo, cache, producer)

	ctx := context.Background()
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Reservation")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Reservation).ID = 7
		}).Return(nil).Once()
	cache.On("DropDay", ctx, "2999-06-05").Return(nil).Once()
	producer.On("Publish", ctx, "reservations", "7", mock.Anything).Return(nil).Once()
	producer.On("Publish", ctx, "notifications", "7", mock.Anything).Return(nil).Once()

	res, err := svc.Create(ctx, validPayload())

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int64(7), res.ID)
	assert.Equal(t, domain.StatusBooked, res.Status)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestService_Create_ValidationFailure(t *testing.T) {
	repo := &MockReservationRepository{}
	svc := NewService(repo, nil, nil, "", WithClock(fixedClock()))

	data := validPayload()
	data["reservation_time"] = "09:00"

	res, err := svc.Create(context.Background(), data)

	assert.Nil(t, res)
	var domErr *domain.Error
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, domain.KindOutsideHours, domErr.Kind)
	repo.AssertNotCalled(t, "Create")
}

func TestService_Get_NotFound(t *testing.T) {
	repo := &MockReservationRepository{}
	svc := NewService(repo, nil, nil, "", WithClock(fixedClock()))

	ctx := context.Background()
	repo.On("GetByID", ctx, int64(99)).Return(nil, repository.ErrNotFound).Once()

	res, err := svc.Get(ctx, 99)

	assert.Nil(t, res)
	var domErr *domain.Error
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, domain.KindNotFound, domErr.Kind)
	assert.Equal(t, "Reservation 99 cannot be found.", domErr.Message)
}

func TestService_Get_StorageError(t *testing.T) {
	repo := &MockReservationRepository{}
	svc := NewService(repo, nil, nil, "", WithClock(fixedClock()))

	ctx := context.Background()
	boom := errors.New("connection reset")
	repo.On("GetByID", ctx, int64(1)).Return(nil, boom).Once()

	_, err := svc.Get(ctx, 1)
	assert.ErrorIs(t, err, boom)
}

func TestService_Update_FinishedIsImmutable(t *testing.T) {
	repo := &MockReservationRepository{}
	svc := NewService(repo, nil, nil, "", WithClock(fixedClock()))

	ctx := context.Background()
	repo.On("GetByID", ctx, int64(3)).Return(&domain.Reservation{ID: 3, Status: domain.StatusFinished}, nil).Once()

	res, err := svc.Update(ctx, 3, validPayload())

	assert.Nil(t, res)
	var domErr *domain.Error
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, domain.KindReservationFinished, domErr.Kind)
	repo.AssertNotCalled(t, "Update")
}

func TestService_Update_KeepsCurrentStatusWhenAbsent(t *testing.T) {
	repo := &MockReservationRepository{}
	cache := &MockCache{}
	svc := NewService(repo, cache, nil, "", WithClock(fixedClock()))

	ctx := context.Background()
	current := &domain.Reservation{ID: 3, Date: "2999-06-05", Status: domain.StatusSeated}
	repo.On("GetByID", ctx, int64(3)).Return(current, nil).Once()

	var written *domain.Reservation
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Reservation")).
		Run(func(args mock.Arguments) {
			written = args.Get(1).(*domain.Reservation)
		}).
		Return(&domain.Reservation{ID: 3, Date: "2999-06-05", Status: domain.StatusSeated}, nil).Once()
	cache.On("DropDay", ctx, "2999-06-05").Return(nil).Once()

	_, err := svc.Update(ctx, 3, validPayload())

	require.NoError(t, err)
	require.NotNil(t, written)
	assert.Equal(t, int64(3), written.ID)
	assert.Equal(t, domain.StatusSeated, written.Status)
}

func TestService_Update_DateChangeDropsBothDays(t *testing.T) {
	repo := &MockReservationRepository{}
	cache := &MockCache{}
	svc := NewService(repo, cache, nil, "", WithClock(fixedClock()))

	ctx := context.Background()
	repo.On("GetByID", ctx, int64(3)).
		Return(&domain.Reservation{ID: 3, Date: "2999-06-04", Status: domain.StatusBooked}, nil).Once()
	repo.On("Update", ctx, mock.Anything).
		Return(&domain.Reservation{ID: 3, Date: "2999-06-05", Status: domain.StatusBooked}, nil).Once()
	cache.On("DropDay", ctx, "2999-06-04").Return(nil).Once()
	cache.On("DropDay", ctx, "2999-06-05").Return(nil).Once()

	_, err := svc.Update(ctx, 3, validPayload())

	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestService_UpdateStatus_Transitions(t *testing.T) {
	legal := []struct {
		from, to domain.Status
	}{
		{domain.StatusBooked, domain.StatusSeated},
		{domain.StatusBooked, domain.StatusCancelled},
		{domain.StatusSeated, domain.StatusFinished},
		{domain.StatusSeated, domain.StatusCancelled},
	}

	for _, tc := range legal {
		t.Run(string(tc.from)+" to "+string(tc.to), func(t *testing.T) {
			repo := &MockReservationRepository{}
			svc := NewService(repo, nil, nil, "", WithClock(fixedClock()))

			ctx := context.Background()
			repo.On("GetByID", ctx, int64(5)).
				Return(&domain.Reservation{ID: 5, Date: "2999-06-05", Status: tc.from}, nil).Once()
			repo.On("UpdateStatus", ctx, int64(5), tc.to).
				Return(&domain.Reservation{ID: 5, Date: "2999-06-05", Status: tc.to}, nil).Once()

			res, err := svc.UpdateStatus(ctx, 5, string(tc.to))

			require.NoError(t, err)
			assert.Equal(t, tc.to, res.Status)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_UpdateStatus_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		current domain.Status
		target  string
		kind    domain.ErrorKind
	}{
		{"finished is terminal", domain.StatusFinished, "cancelled", domain.KindReservationFinished},
		{"unknown status", domain.StatusBooked, "confirmed", domain.KindInvalidStatus},
		{"cancelled is terminal", domain.StatusCancelled, "seated", domain.KindInvalidStatus},
		{"booked cannot finish", domain.StatusBooked, "finished", domain.KindInvalidStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &MockReservationRepository{}
			svc := NewService(repo, nil, nil, "", WithClock(fixedClock()))

			ctx := context.Background()
			repo.On("GetByID", ctx, int64(5)).
				Return(&domain.Reservation{ID: 5, Status: tc.current}, nil).Once()

			res, err := svc.UpdateStatus(ctx, 5, tc.target)

			assert.Nil(t, res)
			var domErr *domain.Error
			require.ErrorAs(t, err, &domErr)
			assert.Equal(t, tc.kind, domErr.Kind)
			repo.AssertNotCalled(t, "UpdateStatus")
		})
	}
}

func TestService_List_DefaultsToToday(t *testing.T) {
	repo := &MockReservationRepository{}
	cache := &MockCache{}
	svc := NewService(repo, cache, nil, "", WithClock(fixedClock()))

	ctx := context.Background()
	today := testNow.Format(dateLayout)
	listing := []domain.Reservation{{ID: 1, Date: today}}
	cache.On("GetDay", ctx, today).Return(nil, nil).Once()
	repo.On("ListByDate", ctx, today).Return(listing, nil).Once()
	cache.On("SetDay", ctx, today, listing).Return(nil).Once()

	got, err := svc.List(ctx, "", "")

	require.NoError(t, err)
	assert.Equal(t, listing, got)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_List_CacheHit(t *testing.T) {
	repo := &MockReservationRepository{}
	cache := &MockCache{}
	svc := NewService(repo, cache, nil, "", WithClock(fixedClock()))

	ctx := context.Background()
	listing := []domain.Reservation{{ID: 1, Date: "2999-06-05"}}
	cache.On("GetDay", ctx, "2999-06-05").Return(listing, nil).Once()

	got, err := svc.List(ctx, "2999-06-05", "")

	require.NoError(t, err)
	assert.Equal(t, listing, got)
	repo.AssertNotCalled(t, "ListByDate")
}

func TestService_List_PhoneSearchStripsNonDigits(t *testing.T) {
	repo := &MockReservationRepository{}
	svc := NewService(repo, nil, nil, "", WithClock(fixedClock()))

	ctx := context.Background()
	repo.On("SearchByPhone", ctx, "5550100").Return([]domain.Reservation{}, nil).Once()

	_, err := svc.List(ctx, "", "(555) 010-0")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_FinishPastSeated(t *testing.T) {
	repo := &MockReservationRepository{}
	cache := &MockCache{}
	producer := &MockProducer{}
	svc := newTestService(repo, cache, producer)

	ctx := context.Background()
	today := testNow.Format(dateLayout)
	finished := []domain.Reservation{
		{ID: 1, Date: "2026-01-14", Status: domain.StatusFinished},
		{ID: 2, Date: "2026-01-13", Status: domain.StatusFinished},
	}
	repo.On("FinishSeatedBefore", ctx, today).Return(finished, nil).Once()
	cache.On("DropDay", ctx, "2026-01-14").Return(nil).Once()
	cache.On("DropDay", ctx, "2026-01-13").Return(nil).Once()
	producer.On("Publish", ctx, "reservations", mock.Anything, mock.Anything).Return(nil).Twice()
	producer.On("Publish", ctx, "notifications", mock.Anything, mock.Anything).Return(nil).Twice()

	got, err := svc.FinishPastSeated(ctx)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	producer.AssertExpectations(t)
}
