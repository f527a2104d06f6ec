package bookingflow

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Permissive local@domain.tld shape; full RFC 5322 compliance is not the goal.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateStep runs the stage-scoped rules for one wizard step and replaces
// the session's error map with that step's findings. Errors from a
// previously validated step never linger.
func (s *Session) ValidateStep(step int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateStepLocked(step)
}

func (s *Session) validateStepLocked(step int) bool {
	errs := map[string]string{}

	switch step {
	case StepGuestDetails:
		if strings.TrimSpace(s.form.FirstName) == "" {
			errs["firstName"] = "First name is required"
		}
		if strings.TrimSpace(s.form.LastName) == "" {
			errs["lastName"] = "Last name is required"
		}
		if strings.TrimSpace(s.form.Email) == "" {
			errs["email"] = "Email is required"
		} else if !emailRe.MatchString(s.form.Email) {
			errs["email"] = "Enter a valid email address"
		}

	case StepStayDates:
		var checkIn, checkOut time.Time
		checkInOK, checkOutOK := false, false

		if s.form.CheckInDate == "" {
			errs["checkInDate"] = "Check-in date is required"
		} else if t, err := time.ParseInLocation(DateLayout, s.form.CheckInDate, time.Local); err != nil {
			errs["checkInDate"] = "Enter a valid check-in date"
		} else {
			checkIn, checkInOK = t, true
		}

		if s.form.CheckOutDate == "" {
			errs["checkOutDate"] = "Check-out date is required"
		} else if t, err := time.ParseInLocation(DateLayout, s.form.CheckOutDate, time.Local); err != nil {
			errs["checkOutDate"] = "Enter a valid check-out date"
		} else {
			checkOut, checkOutOK = t, true
		}

		if checkInOK && checkIn.Before(s.today()) {
			errs["checkInDate"] = "Check-in date cannot be in the past"
		}
		if checkInOK && checkOutOK && !checkOut.After(checkIn) {
			errs["checkOutDate"] = "Check-out date must be after check-in date"
		}
		if s.form.Adults+s.form.Children > s.roomType.MaxOccupancy {
			errs["guests"] = fmt.Sprintf("This room sleeps at most %d guests", s.roomType.MaxOccupancy)
		}

	case StepReview:
		// No field validation here. The review step is gated economically:
		// Submit refuses until pricing has resolved.
	}

	s.errors = errs
	return len(errs) == 0
}

// today is the caller's local date at midnight.
func (s *Session) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
