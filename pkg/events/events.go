package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/brightstay/hotel-bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	BookingCreated  = "booking.created"
	BookingCanceled = "booking.canceled"

	PaymentCaptured = "payment.captured"
	PaymentFailed   = "payment.failed"

	NotifySend = "notify.send"
)

// Event payloads
type BookingCreatedEvent struct {
	BookingID   int64     `json:"booking_id"`
	GuestEmail  string    `json:"guest_email"`
	GuestName   string    `json:"guest_name"`
	PropertyID  int64     `json:"property_id"`
	RoomTypeID  int64     `json:"room_type_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Nights      int       `json:"nights"`
	TotalAmount int64     `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookingCanceledEvent struct {
	BookingID  int64     `json:"booking_id"`
	GuestEmail string    `json:"guest_email"`
	Reason     string    `json:"reason"`
	CanceledAt time.Time `json:"canceled_at"`
}

type PaymentCapturedEvent struct {
	BookingID          int64     `json:"booking_id"`
	SessionID          string    `json:"session_id"`
	ConfirmationNumber string    `json:"confirmation_number"`
	Amount             int64     `json:"amount"`
	Currency           string    `json:"currency"`
	CapturedAt         time.Time `json:"captured_at"`
}

type PaymentFailedEvent struct {
	BookingID int64     `json:"booking_id"`
	SessionID string    `json:"session_id"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

type NotificationEvent struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Template  string                 `json:"template"`
	Data      map[string]interface{} `json:"data"`
}
