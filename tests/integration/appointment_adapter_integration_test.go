//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/arogya-hms/backend/internal/adapters/database"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	"github.com/arogya-hms/backend/internal/infrastructure/clients/postgres"
)

type AppointmentAdapterIntegrationTestSuite struct {
	suite.Suite
	client  *postgres.Client
	adapter repositories.AppointmentRepository
	db      *sql.DB

	patientID    string
	doctorID     string
	departmentID string
}

func (suite *AppointmentAdapterIntegrationTestSuite) SetupSuite() {
	suite.client = newTestPostgresClient(suite.T())
	suite.db = suite.client.DB()
	suite.adapter = database.NewAppointmentAdapter(suite.client)

	suite.runSchema()
}

func (suite *AppointmentAdapterIntegrationTestSuite) TearDownSuite() {
	if suite.client != nil {
		suite.client.Close()
	}
}

func (suite *AppointmentAdapterIntegrationTestSuite) SetupTest() {
	suite.cleanupTestData()
	// Appointments carry foreign keys to users, departments and doctors.
	suite.seedReferenceData()
}

func (suite *AppointmentAdapterIntegrationTestSuite) TearDownTest() {
	suite.cleanupTestData()
}

func (suite *AppointmentAdapterIntegrationTestSuite) runSchema() {
	schemaSQL, err := os.ReadFile("../../scripts/schema.sql")
	require.NoError(suite.T(), err)
	_, err = suite.db.Exec(string(schemaSQL))
	require.NoError(suite.T(), err)
}

func (suite *AppointmentAdapterIntegrationTestSuite) cleanupTestData() {
	tables := []string{
		"medical_records",
		"queue_status",
		"appointments",
		"doctor_availability",
		"doctors",
		"departments",
		"users",
	}
	for _, table := range tables {
		_, err := suite.db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		require.NoError(suite.T(), err)
	}
}

func (suite *AppointmentAdapterIntegrationTestSuite) seedReferenceData() {
	suite.patientID = uuid.New().String()
	suite.doctorID = uuid.New().String()
	suite.departmentID = uuid.New().String()
	doctorUserID := uuid.New().String()

	_, err := suite.db.Exec(`
		INSERT INTO users (id, email, password_hash, full_name, role, is_active, is_verified)
		VALUES
			($1, 'patient@test.example', 'x', 'Test Patient', 'patient', true, false),
			($2, 'doctor@test.example', 'x', 'Dr. Test', 'doctor', true, true)
	`, suite.patientID, doctorUserID)
	require.NoError(suite.T(), err)

	_, err = suite.db.Exec(`
		INSERT INTO departments (id, name, code, description)
		VALUES ($1, 'Cardiology', 'CARD', 'Heart care')
	`, suite.departmentID)
	require.NoError(suite.T(), err)

	_, err = suite.db.Exec(`
		INSERT INTO doctors (id, user_id, specialty, department_id, is_verified)
		VALUES ($1, $2, 'Cardiology', $3, true)
	`, suite.doctorID, doctorUserID, suite.departmentID)
	require.NoError(suite.T(), err)
}

func (suite *AppointmentAdapterIntegrationTestSuite) newAppointment(slot, token string, position int) *entities.Appointment {
	now := time.Now().UTC()
	return &entities.Appointment{
		ID:            uuid.New().String(),
		PatientID:     suite.patientID,
		DoctorID:      suite.doctorID,
		DepartmentID:  suite.departmentID,
		Date:          time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		TimeSlot:      slot,
		Status:        entities.AppointmentStatusScheduled,
		TokenNumber:   token,
		QueuePosition: position,
		Reason:        "Chest pain",
		BookingType:   entities.BookingTypeDoctor,
		IsForSelf:     true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestCreateAndGet() {
	ctx := context.Background()
	appointment := suite.newAppointment("10:00", "CARD-20250602-0001", 1)

	err := suite.adapter.Create(ctx, appointment)
	require.NoError(suite.T(), err)

	retrieved, err := suite.adapter.GetByID(ctx, appointment.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), appointment.ID, retrieved.ID)
	assert.Equal(suite.T(), "CARD-20250602-0001", retrieved.TokenNumber)
	assert.Equal(suite.T(), 1, retrieved.QueuePosition)
	assert.True(suite.T(), appointment.Date.Equal(retrieved.Date.UTC()))
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestDuplicateTokenRejected() {
	ctx := context.Background()
	first := suite.newAppointment("10:00", "CARD-20250602-0001", 1)
	require.NoError(suite.T(), suite.adapter.Create(ctx, first))

	second := suite.newAppointment("10:10", "CARD-20250602-0001", 2)
	err := suite.adapter.Create(ctx, second)
	assert.Error(suite.T(), err)
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestUpdateStatusAndPrescription() {
	ctx := context.Background()
	appointment := suite.newAppointment("10:00", "CARD-20250602-0001", 1)
	require.NoError(suite.T(), suite.adapter.Create(ctx, appointment))

	started := time.Now().UTC()
	appointment.Status = entities.AppointmentStatusInProgress
	appointment.ConsultationStartedAt = &started
	require.NoError(suite.T(), suite.adapter.Update(ctx, appointment))

	appointment.Status = entities.AppointmentStatusCompleted
	appointment.Prescription = "Rest and hydration"
	require.NoError(suite.T(), suite.adapter.Update(ctx, appointment))

	retrieved, err := suite.adapter.GetByID(ctx, appointment.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), entities.AppointmentStatusCompleted, retrieved.Status)
	assert.Equal(suite.T(), "Rest and hydration", retrieved.Prescription)
	require.NotNil(suite.T(), retrieved.ConsultationStartedAt)
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestFindBySlotHonorsStatuses() {
	ctx := context.Background()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	appointment := suite.newAppointment("10:00", "CARD-20250602-0001", 1)
	require.NoError(suite.T(), suite.adapter.Create(ctx, appointment))

	occupied, err := suite.adapter.FindBySlot(ctx, suite.doctorID, date, "10:00", "", entities.ActiveStatuses...)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), occupied)
	assert.Equal(suite.T(), appointment.ID, occupied.ID)

	// A cancelled appointment frees the slot.
	appointment.Status = entities.AppointmentStatusCancelled
	require.NoError(suite.T(), suite.adapter.Update(ctx, appointment))

	freed, err := suite.adapter.FindBySlot(ctx, suite.doctorID, date, "10:00", "", entities.ActiveStatuses...)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), freed)
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestCountByDepartmentCountsAllStatuses() {
	ctx := context.Background()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	first := suite.newAppointment("10:00", "CARD-20250602-0001", 1)
	require.NoError(suite.T(), suite.adapter.Create(ctx, first))

	second := suite.newAppointment("10:10", "CARD-20250602-0002", 2)
	second.Status = entities.AppointmentStatusCancelled
	require.NoError(suite.T(), suite.adapter.Create(ctx, second))

	count, err := suite.adapter.CountByDepartmentAndDate(ctx, suite.departmentID, date)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, count)
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestListByDoctorAndDateOrdersByPosition() {
	ctx := context.Background()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	for i := 3; i >= 1; i-- {
		appt := suite.newAppointment(
			fmt.Sprintf("10:%d0", i),
			fmt.Sprintf("CARD-20250602-000%d", i),
			i,
		)
		require.NoError(suite.T(), suite.adapter.Create(ctx, appt))
	}

	results, err := suite.adapter.ListByDoctorAndDate(ctx, suite.doctorID, date)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), results, 3)
	for i, appt := range results {
		assert.Equal(suite.T(), i+1, appt.QueuePosition)
	}
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestListByPatientWithFilter() {
	ctx := context.Background()

	active := suite.newAppointment("10:00", "CARD-20250602-0001", 1)
	require.NoError(suite.T(), suite.adapter.Create(ctx, active))

	done := suite.newAppointment("10:10", "CARD-20250602-0002", 2)
	done.Status = entities.AppointmentStatusCompleted
	require.NoError(suite.T(), suite.adapter.Create(ctx, done))

	all, err := suite.adapter.ListByPatient(ctx, suite.patientID, repositories.AppointmentFilter{Limit: 10})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), all, 2)

	completed, err := suite.adapter.ListByPatient(ctx, suite.patientID, repositories.AppointmentFilter{
		Status: entities.AppointmentStatusCompleted,
		Limit:  10,
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), completed, 1)
	assert.Equal(suite.T(), done.ID, completed[0].ID)
}

func TestAppointmentAdapterIntegrationTestSuite(t *testing.T) {
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}
	suite.Run(t, new(AppointmentAdapterIntegrationTestSuite))
}
