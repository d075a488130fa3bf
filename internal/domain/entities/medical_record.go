package entities

import (
	"encoding/json"
	"time"
)

// MedicalRecord is the clinical record a doctor writes for a consultation.
// Prescriptions and Vitals are stored as JSON documents.
type MedicalRecord struct {
	ID               string          `json:"id" db:"id"`
	PatientID        string          `json:"patient_id" db:"patient_id"`
	PatientName      string          `json:"patient_name,omitempty" db:"-"`
	DoctorID         string          `json:"doctor_id" db:"doctor_id"`
	DoctorName       string          `json:"doctor_name,omitempty" db:"-"`
	AppointmentID    string          `json:"appointment_id,omitempty" db:"appointment_id"`
	AppointmentToken string          `json:"appointment_token,omitempty" db:"-"`
	Diagnosis        string          `json:"diagnosis" db:"diagnosis"`
	Symptoms         string          `json:"symptoms" db:"symptoms"`
	TreatmentPlan    string          `json:"treatment_plan" db:"treatment_plan"`
	Prescriptions    json.RawMessage `json:"prescriptions,omitempty" db:"prescriptions"`
	Procedures       string          `json:"procedures,omitempty" db:"procedures"`
	Vitals           json.RawMessage `json:"vitals,omitempty" db:"vitals"`
	FollowUpRequired bool            `json:"follow_up_required" db:"follow_up_required"`
	FollowUpDate     *time.Time      `json:"follow_up_date,omitempty" db:"follow_up_date"`
	Notes            string          `json:"notes,omitempty" db:"notes"`
	VisitDate        time.Time       `json:"visit_date" db:"visit_date"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}
