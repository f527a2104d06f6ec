package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightstay/hotel-bookings/internal/domain"
)

type RoomTypeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.RoomType, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]domain.RoomType, error)
}

type roomTypeRepository struct {
	pool *pgxpool.Pool
}

func NewRoomTypeRepository(pool *pgxpool.Pool) RoomTypeRepository {
	return &roomTypeRepository{pool: pool}
}

const roomTypeCols = `id, property_id, name, max_adults, max_children, max_occupancy, base_rate, tax_bps, service_fee`

func (r *roomTypeRepository) GetByID(ctx context.Context, id int64) (*domain.RoomType, error) {
	const q = `SELECT ` + roomTypeCols + ` FROM room_types WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rt domain.RoomType
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&rt.ID, &rt.PropertyID, &rt.Name,
		&rt.MaxAdults, &rt.MaxChildren, &rt.MaxOccupancy,
		&rt.BaseRate, &rt.TaxBps, &rt.ServiceFee,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *roomTypeRepository) ListByProperty(ctx context.Context, propertyID int64) ([]domain.RoomType, error) {
	const q = `SELECT ` + roomTypeCols + ` FROM room_types WHERE property_id=$1 ORDER BY name`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roomTypes []domain.RoomType
	for rows.Next() {
		var rt domain.RoomType
		if err := rows.Scan(
			&rt.ID, &rt.PropertyID, &rt.Name,
			&rt.MaxAdults, &rt.MaxChildren, &rt.MaxOccupancy,
			&rt.BaseRate, &rt.TaxBps, &rt.ServiceFee,
		); err != nil {
			return nil, err
		}
		roomTypes = append(roomTypes, rt)
	}
	return roomTypes, rows.Err()
}
