package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arogya-hms/backend/internal/application/services"
	"github.com/arogya-hms/backend/internal/domain/entities"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

func seedAppointment(t *testing.T, repo *fakeAppointmentRepo, id, token string, position int, status entities.AppointmentStatus) *entities.Appointment {
	t.Helper()
	appointment := &entities.Appointment{
		ID:            id,
		PatientID:     "pat-" + id,
		PatientName:   "Patient " + id,
		DoctorID:      "doc-1",
		DepartmentID:  "dept-cardio",
		Date:          monday,
		TimeSlot:      "09:00",
		Status:        status,
		TokenNumber:   token,
		QueuePosition: position,
	}
	require.NoError(t, repo.Create(context.Background(), appointment))
	return appointment
}

func TestRecompute_AggregatesDayState(t *testing.T) {
	appointments := newFakeAppointmentRepo()
	queueRepo := newFakeQueueRepo()
	svc := services.NewQueueService(appointments, queueRepo, newFakeDoctorRepo(testDoctor()), newFakeEventBus())

	seedAppointment(t, appointments, "a1", "CARD-20250602-0001", 1, entities.AppointmentStatusCompleted)
	seedAppointment(t, appointments, "a2", "CARD-20250602-0002", 2, entities.AppointmentStatusInProgress)
	seedAppointment(t, appointments, "a3", "CARD-20250602-0003", 3, entities.AppointmentStatusScheduled)
	seedAppointment(t, appointments, "a4", "CARD-20250602-0004", 4, entities.AppointmentStatusConfirmed)
	seedAppointment(t, appointments, "a5", "CARD-20250602-0005", 5, entities.AppointmentStatusCancelled)
	seedAppointment(t, appointments, "a6", "CARD-20250602-0006", 6, entities.AppointmentStatusNoShow)

	status, err := svc.Recompute(context.Background(), "doc-1", monday)
	require.NoError(t, err)

	// Cancellations and no-shows count toward neither total nor completed.
	assert.Equal(t, 4, status.TotalTokens)
	assert.Equal(t, 1, status.CompletedTokens)
	assert.Equal(t, "CARD-20250602-0002", status.CurrentToken)

	stored, err := queueRepo.Get(context.Background(), "doc-1", monday)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, status.TotalTokens, stored.TotalTokens)
}

func TestRecompute_ClearsCurrentTokenWhenNothingRunning(t *testing.T) {
	appointments := newFakeAppointmentRepo()
	queueRepo := newFakeQueueRepo()
	svc := services.NewQueueService(appointments, queueRepo, newFakeDoctorRepo(testDoctor()), newFakeEventBus())

	seedAppointment(t, appointments, "a1", "CARD-20250602-0001", 1, entities.AppointmentStatusCompleted)
	seedAppointment(t, appointments, "a2", "CARD-20250602-0002", 2, entities.AppointmentStatusScheduled)

	status, err := svc.Recompute(context.Background(), "doc-1", monday)
	require.NoError(t, err)
	assert.Empty(t, status.CurrentToken)
}

func TestStatus_MissingRowReadsAsEmptyQueue(t *testing.T) {
	svc := services.NewQueueService(newFakeAppointmentRepo(), newFakeQueueRepo(), newFakeDoctorRepo(testDoctor()), newFakeEventBus())

	status, err := svc.Status(context.Background(), "doc-1", monday)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "doc-1", status.DoctorID)
	assert.Zero(t, status.TotalTokens)
	assert.Empty(t, status.CurrentToken)
}

func TestSnapshot_OrdersQueueByPosition(t *testing.T) {
	appointments := newFakeAppointmentRepo()
	queueRepo := newFakeQueueRepo()
	svc := services.NewQueueService(appointments, queueRepo, newFakeDoctorRepo(testDoctor()), newFakeEventBus())

	seedAppointment(t, appointments, "a3", "CARD-20250602-0003", 3, entities.AppointmentStatusScheduled)
	seedAppointment(t, appointments, "a1", "CARD-20250602-0001", 1, entities.AppointmentStatusInProgress)
	seedAppointment(t, appointments, "a2", "CARD-20250602-0002", 2, entities.AppointmentStatusConfirmed)
	// Completed appointments are not part of the live queue.
	seedAppointment(t, appointments, "a0", "CARD-20250602-0000", 0, entities.AppointmentStatusCompleted)

	_, err := svc.Recompute(context.Background(), "doc-1", monday)
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(context.Background(), "doc-1", monday)
	require.NoError(t, err)

	assert.Equal(t, "Dr. Meera Nair", snapshot.DoctorName)
	assert.Equal(t, "2025-06-02", snapshot.Date)
	assert.Equal(t, "CARD-20250602-0001", snapshot.CurrentToken)
	require.Len(t, snapshot.Queue, 3)
	assert.Equal(t, 1, snapshot.Queue[0].QueuePosition)
	assert.Equal(t, 2, snapshot.Queue[1].QueuePosition)
	assert.Equal(t, 3, snapshot.Queue[2].QueuePosition)
	assert.Equal(t, "Patient a1", snapshot.Queue[0].PatientName)
}

func TestSnapshot_UnknownDoctor(t *testing.T) {
	svc := services.NewQueueService(newFakeAppointmentRepo(), newFakeQueueRepo(), newFakeDoctorRepo(), newFakeEventBus())

	_, err := svc.Snapshot(context.Background(), "missing", monday)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
