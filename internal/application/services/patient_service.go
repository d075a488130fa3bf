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

// RegisterPatientInput carries the self-service patient sign-up fields.
type RegisterPatientInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
	NationalID  string `json:"national_id"`
	BloodGroup  string `json:"blood_group"`
}

// UpdateProfileInput carries the patient-editable profile fields. Empty
// fields are left unchanged.
type UpdateProfileInput struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	BloodGroup string `json:"blood_group"`
}

// FamilyMemberInput carries the fields for adding a dependent.
type FamilyMemberInput struct {
	FullName   string `json:"full_name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	NationalID string `json:"national_id"`
	Relation   string `json:"relation"`
}

// PatientService covers patient account operations: registration, profile,
// family members and record access.
type PatientService struct {
	userRepo   repositories.UserRepository
	familyRepo repositories.FamilyMemberRepository
	recordRepo repositories.MedicalRecordRepository
	doctorRepo repositories.DoctorRepository
}

// NewPatientService creates a new patient service
func NewPatientService(
	userRepo repositories.UserRepository,
	familyRepo repositories.FamilyMemberRepository,
	recordRepo repositories.MedicalRecordRepository,
	doctorRepo repositories.DoctorRepository,
) *PatientService {
	return &PatientService{
		userRepo:   userRepo,
		familyRepo: familyRepo,
		recordRepo: recordRepo,
		doctorRepo: doctorRepo,
	}
}

// Register creates a patient account. Registration is open; no principal
// is required.
func (s *PatientService) Register(ctx context.Context, input RegisterPatientInput) (*entities.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.FullName == "" {
		return nil, apperrors.NewValidationError("email and full name are required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("email already registered")
	}

	var dob *time.Time
	if input.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", input.DateOfBirth)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid date of birth, use YYYY-MM-DD")
		}
		dob = &parsed
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
		DateOfBirth:  dob,
		Gender:       entities.Gender(input.Gender),
		Address:      input.Address,
		NationalID:   input.NationalID,
		BloodGroup:   input.BloodGroup,
		Role:         entities.RolePatient,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Profile returns the principal's own account.
func (s *PatientService) Profile(ctx context.Context, principal auth.Principal) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	return user, nil
}

// UpdateProfile applies the non-empty fields of input to the principal's
// account.
func (s *PatientService) UpdateProfile(ctx context.Context, principal auth.Principal, input UpdateProfileInput) (*entities.User, error) {
	user, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	if input.FullName != "" {
		user.FullName = input.FullName
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Address != "" {
		user.Address = input.Address
	}
	if input.BloodGroup != "" {
		user.BloodGroup = input.BloodGroup
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddFamilyMember links a dependent to the principal's patient account.
func (s *PatientService) AddFamilyMember(ctx context.Context, principal auth.Principal, input FamilyMemberInput) (*entities.FamilyMember, error) {
	if !principal.CanManageFamilyMembers(principal.UserID) {
		return nil, apperrors.NewForbiddenError("patient role required")
	}
	if input.FullName == "" || input.Relation == "" {
		return nil, apperrors.NewValidationError("full name and relation are required")
	}
	if input.Age < 0 {
		return nil, apperrors.NewValidationError("age cannot be negative")
	}

	member := &entities.FamilyMember{
		ID:         uuid.New().String(),
		UserID:     principal.UserID,
		FullName:   input.FullName,
		Age:        input.Age,
		Gender:     entities.Gender(input.Gender),
		NationalID: input.NationalID,
		Relation:   input.Relation,
		CreatedAt:  time.Now(),
	}
	if err := s.familyRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// FamilyMembers lists the principal's dependents.
func (s *PatientService) FamilyMembers(ctx context.Context, principal auth.Principal) ([]*entities.FamilyMember, error) {
	if !principal.CanManageFamilyMembers(principal.UserID) {
		return nil, apperrors.NewForbiddenError("patient role required")
	}
	return s.familyRepo.ListByUser(ctx, principal.UserID)
}

// RemoveFamilyMember deletes one of the principal's dependents.
func (s *PatientService) RemoveFamilyMember(ctx context.Context, principal auth.Principal, memberID string) error {
	member, err := s.familyRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperrors.NewNotFoundError("family member not found")
	}
	if !principal.CanManageFamilyMembers(member.UserID) {
		return apperrors.NewForbiddenError("not allowed to manage this family member")
	}
	return s.familyRepo.Delete(ctx, memberID)
}

// MedicalRecords lists the records visible to the principal: a patient's
// own history, or the records a doctor has written.
func (s *PatientService) MedicalRecords(ctx context.Context, principal auth.Principal, limit int) ([]*entities.MedicalRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if principal.IsDoctor() {
		doctor, err := s.doctorRepo.GetByUserID(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
		if doctor == nil {
			return nil, apperrors.NewNotFoundError("doctor profile not found")
		}
		return s.recordRepo.ListByDoctor(ctx, doctor.ID, limit)
	}
	return s.recordRepo.ListByPatient(ctx, principal.UserID, limit)
}

// MedicalRecord returns one record after an ownership check.
func (s *PatientService) MedicalRecord(ctx context.Context, principal auth.Principal, recordID string) (*entities.MedicalRecord, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewNotFoundError("medical record not found")
	}
	doctorUserID := ""
	if record.DoctorID != "" {
		doctor, err := s.doctorRepo.GetByID(ctx, record.DoctorID)
		if err != nil {
			return nil, err
		}
		if doctor != nil {
			doctorUserID = doctor.UserID
		}
	}
	if !principal.CanViewMedicalRecord(record, doctorUserID) {
		return nil, apperrors.NewForbiddenError("not allowed to view this record")
	}
	return record, nil
}
