package entities

import (
	"time"
)

// QueueStatus is the materialized per-(doctor, date) queue aggregate. It is
// recomputed wholesale from the day's appointments on every relevant state
// change; the queue service is its only writer.
type QueueStatus struct {
	ID                   string    `json:"id" db:"id"`
	DoctorID             string    `json:"doctor_id" db:"doctor_id"`
	DoctorName           string    `json:"doctor_name,omitempty" db:"-"`
	Date                 time.Time `json:"appointment_date" db:"appointment_date"`
	CurrentToken         string    `json:"current_token" db:"current_token"`
	TotalTokens          int       `json:"total_tokens" db:"total_tokens"`
	CompletedTokens      int       `json:"completed_tokens" db:"completed_tokens"`
	AvgMinutesPerPatient float64   `json:"average_time_per_patient,omitempty" db:"average_time_per_patient"`
	LastUpdated          time.Time `json:"last_updated" db:"last_updated"`
}

// QueueEventType classifies queue events on the wire
type QueueEventType string

const (
	// QueueEventChanged is the invalidation signal published after any
	// queue-affecting mutation. It carries no queue payload; subscribers
	// re-fetch full state.
	QueueEventChanged QueueEventType = "queue_changed"

	// QueueEventSnapshot is the full state pushed to a subscriber when it
	// first connects.
	QueueEventSnapshot QueueEventType = "queue_snapshot"

	// QueueEventAppointment notifies a patient channel that one of the
	// patient's appointments changed.
	QueueEventAppointment QueueEventType = "appointment_update"
)

// QueueEvent is the message published on doctor queue and patient
// appointment channels.
type QueueEvent struct {
	ID        string         `json:"id"`
	EventType QueueEventType `json:"event_type"`
	DoctorID  string         `json:"doctor_id,omitempty"`
	PatientID string         `json:"patient_id,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// QueueEntry is one appointment in a doctor's live queue, ordered by
// position.
type QueueEntry struct {
	TokenNumber   string            `json:"token_number"`
	PatientName   string            `json:"patient_name"`
	Status        AppointmentStatus `json:"status"`
	QueuePosition int               `json:"queue_position"`
	EstimatedTime string            `json:"estimated_time,omitempty"`
}

// QueueSnapshot is the full queue state for a doctor's day, pushed on
// subscribe and re-fetched by clients after a QueueEventChanged signal.
type QueueSnapshot struct {
	DoctorID        string       `json:"doctor_id"`
	DoctorName      string       `json:"doctor_name"`
	Date            string       `json:"date"`
	CurrentToken    string       `json:"current_token"`
	TotalTokens     int          `json:"total_tokens"`
	CompletedTokens int          `json:"completed_tokens"`
	Queue           []QueueEntry `json:"queue"`
}
