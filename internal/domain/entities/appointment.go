package entities

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// ActiveStatuses are the statuses that occupy a time slot and count toward
// the live queue. Cancelled, no-show and completed appointments free their
// slot.
var ActiveStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
	AppointmentStatusInProgress,
}

// IsTerminal reports whether no further status transition is permitted.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status machine permits moving from s to
// next: scheduled to confirmed to in_progress to completed, with cancelled and
// no_show as side exits from scheduled or confirmed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusScheduled:
		switch next {
		case AppointmentStatusConfirmed, AppointmentStatusInProgress,
			AppointmentStatusCancelled, AppointmentStatusNoShow:
			return true
		}
	case AppointmentStatusConfirmed:
		switch next {
		case AppointmentStatusInProgress, AppointmentStatusCancelled, AppointmentStatusNoShow:
			return true
		}
	case AppointmentStatusInProgress:
		return next == AppointmentStatusCompleted
	}
	return false
}

// BookingType records how the patient found the doctor
type BookingType string

const (
	BookingTypeDepartment BookingType = "disease"
	BookingTypeDoctor     BookingType = "doctor"
)

// Appointment is the central entity: one patient, one doctor, one dated
// time slot, plus the token and queue position assigned at creation.
// TokenNumber is immutable once set and globally unique; QueuePosition is
// never renumbered, even when earlier appointments cancel.
type Appointment struct {
	ID                    string            `json:"id" db:"id"`
	PatientID             string            `json:"patient_id" db:"patient_id"`
	PatientName           string            `json:"patient_name,omitempty" db:"-"`
	DoctorID              string            `json:"doctor_id" db:"doctor_id"`
	DoctorName            string            `json:"doctor_name,omitempty" db:"-"`
	DepartmentID          string            `json:"department_id" db:"department_id"`
	Date                  time.Time         `json:"appointment_date" db:"appointment_date"`
	TimeSlot              string            `json:"time_slot" db:"time_slot"`
	Status                AppointmentStatus `json:"status" db:"status"`
	TokenNumber           string            `json:"token_number" db:"token_number"`
	QueuePosition         int               `json:"queue_position" db:"queue_position"`
	EstimatedTime         string            `json:"estimated_time,omitempty" db:"estimated_time"`
	Reason                string            `json:"reason" db:"reason"`
	BookingType           BookingType       `json:"booking_type" db:"booking_type"`
	IsForSelf             bool              `json:"is_for_self" db:"is_for_self"`
	PatientRelation       string            `json:"patient_relation,omitempty" db:"patient_relation"`
	ConsultationStartedAt *time.Time        `json:"consultation_started_at,omitempty" db:"consultation_started_at"`
	ConsultationEndedAt   *time.Time        `json:"consultation_ended_at,omitempty" db:"consultation_ended_at"`
	Notes                 string            `json:"notes,omitempty" db:"notes"`
	Prescription          string            `json:"prescription,omitempty" db:"prescription"`
	CreatedAt             time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at" db:"updated_at"`
}

// Slot is one bookable 10-minute unit within a doctor's day.
type Slot struct {
	Value    string `json:"value"`
	Display  string `json:"display"`
	Duration string `json:"duration"`
}
