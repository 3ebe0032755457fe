package store

// User is the profile record consumed by the chat core. The chat core only
// patches the four contact fields; the stats are read-only display data
// maintained by the trip pipeline.
type User struct {
	UserID        string
	Nickname      string
	Email         string
	Phone         string
	Faculty       string
	TotalCarbon   float64 // grams of carbon saved
	CurrentPoints int
	TotalPoints   int
	TotalTrips    int
	TotalDistance float64 // km
	GreenDays     int
	WeeklyRank    int
	UpdatedTs     int64
	ID            int64
}

// UpdateUser is a partial profile update. Nil fields are left unchanged.
type UpdateUser struct {
	UserID   string
	Nickname *string
	Email    *string
	Phone    *string
	Faculty  *string
}
