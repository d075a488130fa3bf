package entities

import (
	"time"
)

// Role represents a user's role in the system
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Gender represents a user's gender
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User represents an account in the system. Doctors additionally have a
// Doctor profile row linked by user ID.
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FullName     string     `json:"full_name" db:"full_name"`
	Phone        string     `json:"phone" db:"phone"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender       Gender     `json:"gender,omitempty" db:"gender"`
	Address      string     `json:"address,omitempty" db:"address"`
	NationalID   string     `json:"national_id,omitempty" db:"national_id"`
	BloodGroup   string     `json:"blood_group,omitempty" db:"blood_group"`
	Role         Role       `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsVerified   bool       `json:"is_verified" db:"is_verified"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// FamilyMember is a dependent linked to a patient account, bookable via
// proxy appointments.
type FamilyMember struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	FullName   string    `json:"full_name" db:"full_name"`
	Age        int       `json:"age" db:"age"`
	Gender     Gender    `json:"gender" db:"gender"`
	NationalID string    `json:"national_id" db:"national_id"`
	Relation   string    `json:"relation" db:"relation"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
