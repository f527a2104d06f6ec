package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightstay/hotel-bookings/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, req *domain.BookingCreateReq) (*domain.Booking, error)
	SetPaymentSession(ctx context.Context, id int64, sessionID, checkoutURL string) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Booking, error)
	MarkConfirmed(ctx context.Context, id int64, confirmationNumber string) (*domain.Booking, error)
	MarkPaymentFailed(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64) (bool, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, confirmation_number, status,
property_id, room_type_id,
guest_first_name, guest_last_name, guest_email, guest_phone,
check_in, check_out, adults, children,
special_requests, guest_notes,
nights, subtotal, taxes, service_fee, total_amount,
payment_session_id, checkout_url, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.ConfirmationNumber, &b.Status,
		&b.PropertyID, &b.RoomTypeID,
		&b.GuestFirstName, &b.GuestLastName, &b.GuestEmail, &b.GuestPhone,
		&b.CheckIn, &b.CheckOut, &b.Adults, &b.Children,
		&b.SpecialRequests, &b.GuestNotes,
		&b.Nights, &b.Subtotal, &b.Taxes, &b.ServiceFee, &b.TotalAmount,
		&b.PaymentSessionID, &b.CheckoutURL, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, req *domain.BookingCreateReq) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
		confirmation_number, status,
		property_id, room_type_id,
		guest_first_name, guest_last_name, guest_email, guest_phone,
		check_in, check_out, adults, children,
		special_requests, guest_notes,
		nights, subtotal, taxes, service_fee, total_amount,
		payment_session_id, checkout_url
	) VALUES ('','pending',$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,'','')
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q,
		req.PropertyID, req.RoomTypeID,
		req.FirstName, req.LastName, req.Email, req.Phone,
		req.CheckIn, req.CheckOut, req.Adults, req.Children,
		req.SpecialRequests, req.GuestNotes,
		req.Nights, req.Subtotal, req.Taxes, req.ServiceFee, req.TotalAmount,
	))
}

func (r *bookingRepository) SetPaymentSession(ctx context.Context, id int64, sessionID, checkoutURL string) error {
	const q = `UPDATE bookings SET payment_session_id=$2, checkout_url=$3, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, sessionID, checkoutURL)
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id))
}

func (r *bookingRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE payment_session_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, sessionID))
}

// MarkConfirmed is a no-op when the booking has already been confirmed, so
// repeated paid observations from polling settle the booking exactly once.
func (r *bookingRepository) MarkConfirmed(ctx context.Context, id int64, confirmationNumber string) (*domain.Booking, error) {
	const q = `UPDATE bookings
		SET status='confirmed', confirmation_number=$2, updated_at=now()
		WHERE id=$1 AND status NOT IN ('confirmed','canceled')
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id, confirmationNumber))
}

func (r *bookingRepository) MarkPaymentFailed(ctx context.Context, id int64) error {
	const q = `UPDATE bookings SET status='payment_failed', updated_at=now()
		WHERE id=$1 AND status='pending'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *bookingRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE bookings SET status='canceled', updated_at=now() WHERE id=$1 AND status != 'canceled'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE lower(guest_email)=lower($1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, email, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.ConfirmationNumber, &b.Status,
			&b.PropertyID, &b.RoomTypeID,
			&b.GuestFirstName, &b.GuestLastName, &b.GuestEmail, &b.GuestPhone,
			&b.CheckIn, &b.CheckOut, &b.Adults, &b.Children,
			&b.SpecialRequests, &b.GuestNotes,
			&b.Nights, &b.Subtotal, &b.Taxes, &b.ServiceFee, &b.TotalAmount,
			&b.PaymentSessionID, &b.CheckoutURL, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
