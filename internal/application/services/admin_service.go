package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/arogya-hms/backend/internal/domain/auth"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

// RegisterDoctorInput carries everything needed to create a doctor account
// and its profile in one step.
type RegisterDoctorInput struct {
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	FullName        string  `json:"full_name"`
	Phone           string  `json:"phone"`
	Specialty       string  `json:"specialty"`
	DepartmentID    string  `json:"department_id"`
	Qualification   string  `json:"qualification"`
	Experience      string  `json:"experience"`
	LicenseNumber   string  `json:"license_number"`
	ConsultationFee float64 `json:"consultation_fee"`
	Bio             string  `json:"bio"`
}

// AdminService covers staff operations: doctor onboarding, verification
// and user administration.
type AdminService struct {
	userRepo       repositories.UserRepository
	doctorRepo     repositories.DoctorRepository
	departmentRepo repositories.DepartmentRepository
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo repositories.UserRepository,
	doctorRepo repositories.DoctorRepository,
	departmentRepo repositories.DepartmentRepository,
) *AdminService {
	return &AdminService{
		userRepo:       userRepo,
		doctorRepo:     doctorRepo,
		departmentRepo: departmentRepo,
	}
}

// RegisterDoctor creates a doctor user account plus its profile. Admin
// registrations come out pre-verified; the profile still starts
// unverified until VerifyDoctor runs.
func (s *AdminService) RegisterDoctor(ctx context.Context, principal auth.Principal, input RegisterDoctorInput) (*entities.Doctor, error) {
	if !principal.CanRegisterDoctors() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.FullName == "" {
		return nil, apperrors.NewValidationError("email and full name are required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters")
	}
	if input.DepartmentID == "" {
		return nil, apperrors.NewValidationError("department is required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("email already registered")
	}

	department, err := s.departmentRepo.GetByID(ctx, input.DepartmentID)
	if err != nil {
		return nil, err
	}
	if department == nil {
		return nil, apperrors.NewNotFoundError("department not found")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	now := time.Now()
	user := &entities.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Phone:        input.Phone,
		Role:         entities.RoleDoctor,
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	doctor := &entities.Doctor{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		FullName:        user.FullName,
		Email:           user.Email,
		Phone:           user.Phone,
		Specialty:       input.Specialty,
		DepartmentID:    department.ID,
		DepartmentName:  department.Name,
		Qualification:   input.Qualification,
		Experience:      input.Experience,
		LicenseNumber:   input.LicenseNumber,
		ConsultationFee: input.ConsultationFee,
		Bio:             input.Bio,
		IsAvailable:     true,
		IsVerified:      false,
		QueueState:      entities.DoctorQueueAvailable,
		RegisteredBy:    principal.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

// VerifyDoctor marks a doctor profile as verified, making it bookable by
// patients.
func (s *AdminService) VerifyDoctor(ctx context.Context, principal auth.Principal, doctorID string) (*entities.Doctor, error) {
	if !principal.CanRegisterDoctors() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}
	doctor, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, apperrors.NewNotFoundError("doctor not found")
	}
	if doctor.IsVerified {
		return doctor, nil
	}
	doctor.IsVerified = true
	if err := s.doctorRepo.Update(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

// PendingDoctors lists doctor profiles awaiting verification.
func (s *AdminService) PendingDoctors(ctx context.Context, principal auth.Principal) ([]*entities.Doctor, error) {
	if !principal.CanRegisterDoctors() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}
	return s.doctorRepo.List(ctx, repositories.DoctorFilter{PendingVerification: true})
}

// ListUsers lists user accounts, newest first.
func (s *AdminService) ListUsers(ctx context.Context, principal auth.Principal, filter repositories.UserFilter) ([]*entities.User, error) {
	if !principal.CanListUsers() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}
	return s.userRepo.List(ctx, filter)
}

// SetUserActive toggles account soft-deactivation.
func (s *AdminService) SetUserActive(ctx context.Context, principal auth.Principal, userID string, active bool) (*entities.User, error) {
	if !principal.CanListUsers() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
