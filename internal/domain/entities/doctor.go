package entities

import (
	"time"
)

// DoctorQueueState represents what a doctor is currently doing with their
// queue.
type DoctorQueueState string

const (
	DoctorQueueAvailable DoctorQueueState = "available"
	DoctorQueueBusy      DoctorQueueState = "busy"
	DoctorQueueBreak     DoctorQueueState = "break"
	DoctorQueueOffline   DoctorQueueState = "offline"
)

// Doctor is a doctor profile linked 1:1 to a User with RoleDoctor. Doctors
// are never deleted; deactivation happens through IsAvailable.
type Doctor struct {
	ID                   string           `json:"id" db:"id"`
	UserID               string           `json:"user_id" db:"user_id"`
	FullName             string           `json:"full_name" db:"-"`
	Email                string           `json:"email,omitempty" db:"-"`
	Phone                string           `json:"phone,omitempty" db:"-"`
	Specialty            string           `json:"specialty" db:"specialty"`
	DepartmentID         string           `json:"department_id" db:"department_id"`
	DepartmentName       string           `json:"department_name,omitempty" db:"-"`
	Qualification        string           `json:"qualification" db:"qualification"`
	Experience           string           `json:"experience" db:"experience"`
	LicenseNumber        string           `json:"license_number" db:"license_number"`
	ConsultationFee      float64          `json:"consultation_fee" db:"consultation_fee"`
	Rating               float64          `json:"rating" db:"rating"`
	Bio                  string           `json:"bio,omitempty" db:"bio"`
	IsAvailable          bool             `json:"is_available" db:"is_available"`
	IsVerified           bool             `json:"is_verified" db:"is_verified"`
	CurrentToken         string           `json:"current_token" db:"current_token"`
	QueueState           DoctorQueueState `json:"queue_status" db:"queue_status"`
	AvgMinutesPerPatient float64          `json:"average_time_per_patient,omitempty" db:"average_time_per_patient"`
	RegisteredBy         string           `json:"registered_by,omitempty" db:"registered_by"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`
}

// Weekday is a lowercase day-of-week name matching time.Weekday.String().
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// WeekdayOf returns the Weekday for a calendar date.
func WeekdayOf(date time.Time) Weekday {
	switch date.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// DoctorAvailability is a doctor's working window for one weekday. At most
// one active row exists per (doctor, weekday); StartTime and EndTime are
// "HH:MM" times of day.
type DoctorAvailability struct {
	ID              string    `json:"id" db:"id"`
	DoctorID        string    `json:"doctor_id" db:"doctor_id"`
	DayOfWeek       Weekday   `json:"day_of_week" db:"day_of_week"`
	StartTime       string    `json:"start_time" db:"start_time"`
	EndTime         string    `json:"end_time" db:"end_time"`
	MaxAppointments int       `json:"max_appointments" db:"max_appointments"`
	IsAvailable     bool      `json:"is_available" db:"is_available"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
