package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/arogya-hms/backend/internal/adapters/database"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/infrastructure/clients/postgres"
	"github.com/arogya-hms/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	userRepo := database.NewUserAdapter(pgClient)
	departmentRepo := database.NewDepartmentAdapter(pgClient)
	doctorRepo := database.NewDoctorAdapter(pgClient)
	availabilityRepo := database.NewAvailabilityAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				medical_records,
				queue_status,
				appointments,
				family_members,
				doctor_availability,
				doctors,
				departments,
				users
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	now := time.Now()

	// 1. Seed departments. Codes become token prefixes.
	departments := []entities.Department{
		{ID: uuid.New().String(), Name: "Cardiology", Code: "CARD", Description: "Heart and vascular care", Icon: "heart", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Orthopedics", Code: "ORTH", Description: "Bone and joint care", Icon: "bone", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Pediatrics", Code: "PEDS", Description: "Child health", Icon: "child", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "General Medicine", Code: "GENM", Description: "General consultations", Icon: "stethoscope", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Dermatology", Code: "DERM", Description: "Skin care", Icon: "skin", IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	for i := range departments {
		if err := departmentRepo.Create(ctx, &departments[i]); err != nil {
			log.Printf("Failed to create department %s: %v", departments[i].Name, err)
		}
	}

	// 2. Seed the admin account
	admin := entities.User{
		ID:           uuid.New().String(),
		Email:        "admin@arogya-hms.example",
		PasswordHash: mustHash("admin-change-me"),
		FullName:     "Hospital Administrator",
		Phone:        "+91-9800000000",
		Role:         entities.RoleAdmin,
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := userRepo.Create(ctx, &admin); err != nil {
		log.Printf("Failed to create admin user: %v", err)
	}

	// 3. Seed doctors with Monday-Friday availability
	doctorSeeds := []struct {
		name       string
		email      string
		specialty  string
		department int
		fee        float64
	}{
		{"Dr. Meera Nair", "meera.nair@arogya-hms.example", "Interventional Cardiology", 0, 800},
		{"Dr. Arjun Pillai", "arjun.pillai@arogya-hms.example", "Joint Replacement", 1, 700},
		{"Dr. Kavita Menon", "kavita.menon@arogya-hms.example", "Neonatology", 2, 600},
		{"Dr. Suresh Kumar", "suresh.kumar@arogya-hms.example", "Internal Medicine", 3, 500},
		{"Dr. Lakshmi Iyer", "lakshmi.iyer@arogya-hms.example", "Clinical Dermatology", 4, 650},
	}
	weekdays := []entities.Weekday{
		entities.Monday, entities.Tuesday, entities.Wednesday, entities.Thursday, entities.Friday,
	}
	for _, seed := range doctorSeeds {
		user := entities.User{
			ID:           uuid.New().String(),
			Email:        seed.email,
			PasswordHash: mustHash("doctor-change-me"),
			FullName:     seed.name,
			Role:         entities.RoleDoctor,
			IsActive:     true,
			IsVerified:   true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := userRepo.Create(ctx, &user); err != nil {
			log.Printf("Failed to create user %s: %v", seed.email, err)
			continue
		}

		doctor := entities.Doctor{
			ID:              uuid.New().String(),
			UserID:          user.ID,
			Specialty:       seed.specialty,
			DepartmentID:    departments[seed.department].ID,
			Qualification:   "MD",
			Experience:      "10 years",
			LicenseNumber:   "MCI-" + uuid.New().String()[:8],
			ConsultationFee: seed.fee,
			Rating:          4.5,
			IsAvailable:     true,
			IsVerified:      true,
			QueueState:      entities.DoctorQueueAvailable,
			RegisteredBy:    admin.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := doctorRepo.Create(ctx, &doctor); err != nil {
			log.Printf("Failed to create doctor %s: %v", seed.name, err)
			continue
		}

		for _, day := range weekdays {
			window := entities.DoctorAvailability{
				ID:              uuid.New().String(),
				DoctorID:        doctor.ID,
				DayOfWeek:       day,
				StartTime:       "09:00",
				EndTime:         "17:00",
				MaxAppointments: 30,
				IsAvailable:     true,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := availabilityRepo.Upsert(ctx, &window); err != nil {
				log.Printf("Failed to create availability for %s on %s: %v", seed.name, day, err)
			}
		}
	}

	// 4. Seed a couple of patient accounts
	patients := []entities.User{
		{
			ID: uuid.New().String(), Email: "asha.rao@example.com",
			PasswordHash: mustHash("patient-change-me"), FullName: "Asha Rao",
			Phone: "+91-9800000010", Role: entities.RolePatient, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.New().String(), Email: "vikram.shetty@example.com",
			PasswordHash: mustHash("patient-change-me"), FullName: "Vikram Shetty",
			Phone: "+91-9800000011", Role: entities.RolePatient, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		},
	}
	for i := range patients {
		if err := userRepo.Create(ctx, &patients[i]); err != nil {
			log.Printf("Failed to create patient %s: %v", patients[i].Email, err)
		}
	}

	log.Println("Seeding complete")
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	return string(hash)
}
