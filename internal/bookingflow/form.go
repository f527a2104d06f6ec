package bookingflow

// DateLayout is the calendar-date format used by the wizard. Stay dates
// carry no time component; they are expanded to local-midnight timestamps
// at submission.
const DateLayout = "2006-01-02"

// Wizard steps, in order.
const (
	StepGuestDetails = 0
	StepStayDates    = 1
	StepReview       = 2
)

// FormData is the mutable draft a guest fills in across the wizard. It is
// consumed, not destroyed, at submission so a failed attempt can be retried
// without re-entry.
type FormData struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	CheckInDate     string // DateLayout, empty when unset
	CheckOutDate    string // DateLayout, empty when unset
	Adults          int
	Children        int
	SpecialRequests string
	GuestNotes      string
}

func defaultForm() FormData {
	return FormData{
		Adults:   1,
		Children: 0,
	}
}
