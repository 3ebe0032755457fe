package store

// BookingStatus is the lifecycle status of a chat booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type ChatBooking struct {
	BookingID  string
	TripID     string // empty when no trip could be started
	UserID     string
	FromName   string
	ToName     string
	DepartAt   string
	Passengers int
	Status     BookingStatus
	CreatedTs  int64
	ID         int64
}
