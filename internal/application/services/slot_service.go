package services

import (
	"context"
	"fmt"
	"time"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

const (
	// slotStrideMinutes is the fixed width of a bookable slot.
	slotStrideMinutes = 10

	defaultDayStart = "09:00"
	defaultDayEnd   = "17:00"
)

// SlotService computes the bookable time slots for a doctor's day. It is a
// pure read over current state: concurrent bookings between computation and
// use are caught by the booking validation that re-checks the slot.
type SlotService struct {
	doctorRepo       repositories.DoctorRepository
	availabilityRepo repositories.AvailabilityRepository
	appointmentRepo  repositories.AppointmentRepository
}

// NewSlotService creates a new slot service
func NewSlotService(
	doctorRepo repositories.DoctorRepository,
	availabilityRepo repositories.AvailabilityRepository,
	appointmentRepo repositories.AppointmentRepository,
) *SlotService {
	return &SlotService{
		doctorRepo:       doctorRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
	}
}

// AvailableSlots returns the open slots for a doctor on a date, in
// chronological order. Without a configured window the day defaults to
// 09:00-17:00; a configured end of 00:00 means end of day, not an empty
// window.
func (s *SlotService) AvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]entities.Slot, error) {
	doctor, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, apperrors.NewNotFoundError("doctor not found")
	}

	availability, err := s.availabilityRepo.GetByDoctorAndDay(ctx, doctorID, entities.WeekdayOf(date))
	if err != nil {
		return nil, err
	}

	start, end := defaultDayStart, defaultDayEnd
	if availability != nil {
		start, end = availability.StartTime, availability.EndTime
	}

	startMin, err := parseClock(start)
	if err != nil {
		return nil, apperrors.NewInternalError("invalid availability start time", err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return nil, apperrors.NewInternalError("invalid availability end time", err)
	}
	// Midnight as an end time is the end-of-day sentinel.
	if endMin == 0 {
		endMin = 23*60 + 59
	}

	booked, err := s.appointmentRepo.ListBookedSlots(ctx, doctorID, date, entities.ActiveStatuses...)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(booked))
	for _, slot := range booked {
		taken[slot] = struct{}{}
	}

	var slots []entities.Slot
	for current := startMin; current < endMin; current += slotStrideMinutes {
		value := formatClock(current)
		if _, ok := taken[value]; ok {
			continue
		}
		slots = append(slots, entities.Slot{
			Value:    value,
			Display:  formatClock12(current),
			Duration: fmt.Sprintf("%d minutes", slotStrideMinutes),
		})
	}

	if availability != nil && availability.MaxAppointments > 0 && len(slots) > availability.MaxAppointments {
		slots = slots[:availability.MaxAppointments]
	}

	return slots, nil
}

// parseClock parses an "HH:MM" time of day into minutes since midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatClock formats minutes since midnight as 24-hour "HH:MM".
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// formatClock12 formats minutes since midnight as 12-hour "H:MM AM/PM".
func formatClock12(minutes int) string {
	hours := minutes / 60
	period := "AM"
	if hours >= 12 {
		period = "PM"
	}
	display := hours
	if display > 12 {
		display -= 12
	}
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minutes%60, period)
}

// parseDate parses a "YYYY-MM-DD" calendar date.
func parseDate(value string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid date format, use YYYY-MM-DD")
	}
	return date, nil
}
