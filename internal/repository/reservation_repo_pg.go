package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jcalder/tablebook/internal/domain"
)

// ErrNotFound is returned when a reservation id does not resolve to a row.
var ErrNotFound = errors.New("reservation not found")

type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	ListByDate(ctx context.Context, date string) ([]domain.Reservation, error)
	SearchByPhone(ctx context.Context, digits string) ([]domain.Reservation, error)
	Create(ctx context.Context, reservation *domain.Reservation) error
	Update(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Reservation, error)
	FinishSeatedBefore(ctx context.Context, date string) ([]domain.Reservation, error)
}

const reservationColumns = `reservation_id, first_name, last_name, mobile_number,
	to_char(reservation_date, 'YYYY-MM-DD'), to_char(reservation_time, 'HH24:MI'),
	people, status, created_at, updated_at`

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE reservation_id=$1`, id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *PGReservationRepository) ListByDate(ctx context.Context, date string) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE reservation_date=$1::date AND status NOT IN ($2, $3)
		ORDER BY reservation_time`, date, domain.StatusFinished, domain.StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *PGReservationRepository) SearchByPhone(ctx context.Context, digits string) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE translate(mobile_number, '() -', '') LIKE '%' || $1 || '%'
		ORDER BY reservation_date`, digits)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *PGReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	reservation.Status = domain.StatusBooked
	return r.db.QueryRow(ctx, `INSERT INTO reservations (first_name, last_name, mobile_number, reservation_date, reservation_time, people, status)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7)
		RETURNING reservation_id, created_at, updated_at`,
		reservation.FirstName, reservation.LastName, reservation.MobileNumber,
		reservation.Date, reservation.Time, reservation.People, reservation.Status).
		Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)
}

func (r *PGReservationRepository) Update(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `UPDATE reservations
		SET first_name=$1, last_name=$2, mobile_number=$3, reservation_date=$4::date,
			reservation_time=$5::time, people=$6, status=$7, updated_at=now()
		WHERE reservation_id=$8
		RETURNING `+reservationColumns,
		reservation.FirstName, reservation.LastName, reservation.MobileNumber,
		reservation.Date, reservation.Time, reservation.People, reservation.Status, reservation.ID)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *PGReservationRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `UPDATE reservations SET status=$1, updated_at=now()
		WHERE reservation_id=$2
		RETURNING `+reservationColumns, status, id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *PGReservationRepository) FinishSeatedBefore(ctx context.Context, date string) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `UPDATE reservations SET status=$1, updated_at=now()
		WHERE status=$2 AND reservation_date < $3::date
		RETURNING `+reservationColumns, domain.StatusFinished, domain.StatusSeated, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := row.Scan(&res.ID, &res.FirstName, &res.LastName, &res.MobileNumber,
		&res.Date, &res.Time, &res.People, &res.Status, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}
