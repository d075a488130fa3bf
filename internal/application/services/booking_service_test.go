package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arogya-hms/backend/internal/application/services"
	"github.com/arogya-hms/backend/internal/domain/auth"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/providers"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

type bookingFixture struct {
	appointments *fakeAppointmentRepo
	doctors      *fakeDoctorRepo
	departments  *fakeDepartmentRepo
	availability *fakeAvailabilityRepo
	queueRepo    *fakeQueueRepo
	eventBus     *fakeEventBus
	queues       *services.QueueService
	svc          *services.BookingService
}

func newBookingFixture(windows ...*entities.DoctorAvailability) *bookingFixture {
	f := &bookingFixture{
		appointments: newFakeAppointmentRepo(),
		doctors:      newFakeDoctorRepo(testDoctor()),
		departments: newFakeDepartmentRepo(&entities.Department{
			ID: "dept-cardio", Name: "Cardiology", Code: "CARD", IsActive: true,
		}),
		availability: newFakeAvailabilityRepo(windows...),
		queueRepo:    newFakeQueueRepo(),
		eventBus:     newFakeEventBus(),
	}
	f.queues = services.NewQueueService(f.appointments, f.queueRepo, f.doctors, f.eventBus)
	f.svc = services.NewBookingService(f.appointments, f.doctors, f.departments, f.availability, f.queues)
	return f
}

func patientPrincipal(id string) auth.Principal {
	return auth.Principal{UserID: id, Role: entities.RolePatient}
}

func bookingRequest(patientID, slot string) *services.BookingRequest {
	return &services.BookingRequest{
		PatientID: patientID,
		DoctorID:  "doc-1",
		Date:      "2025-06-02",
		TimeSlot:  slot,
		Reason:    "chest pain",
		IsForSelf: true,
	}
}

func TestBook_AssignsTokenAndQueuePosition(t *testing.T) {
	f := newBookingFixture()

	appointment, err := f.svc.Book(context.Background(), patientPrincipal("pat-1"), bookingRequest("pat-1", "09:00"))
	require.NoError(t, err)

	assert.Equal(t, "CARD-20250602-0001", appointment.TokenNumber)
	assert.Equal(t, 1, appointment.QueuePosition)
	assert.Equal(t, entities.AppointmentStatusScheduled, appointment.Status)
	assert.Equal(t, entities.BookingTypeDoctor, appointment.BookingType)
	assert.NotEmpty(t, appointment.ID)

	// The queue aggregate is refreshed and both rooms are signalled.
	status, err := f.queueRepo.Get(context.Background(), "doc-1", monday)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, 1, status.TotalTokens)

	queueEvents := f.eventBus.eventsOn(providers.DoctorQueueChannel("doc-1"))
	require.Len(t, queueEvents, 1)
	assert.Equal(t, entities.QueueEventChanged, queueEvents[0].EventType)

	patientEvents := f.eventBus.eventsOn(providers.PatientAppointmentChannel("pat-1"))
	require.Len(t, patientEvents, 1)
	assert.Contains(t, patientEvents[0].Message, "CARD-20250602-0001")
}

func TestBook_TokenSequenceIncreases(t *testing.T) {
	f := newBookingFixture()

	for i := 0; i < 3; i++ {
		patient := fmt.Sprintf("pat-%d", i+1)
		slot := fmt.Sprintf("09:%d0", i)
		appointment, err := f.svc.Book(context.Background(), patientPrincipal(patient), bookingRequest(patient, slot))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("CARD-20250602-%04d", i+1), appointment.TokenNumber)
		assert.Equal(t, i+1, appointment.QueuePosition)
	}
}

func TestBook_RejectsOccupiedSlot(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Book(context.Background(), patientPrincipal("pat-1"), bookingRequest("pat-1", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), patientPrincipal("pat-2"), bookingRequest("pat-2", "09:00"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
}

func TestBook_CancelledSlotCanBeRebooked(t *testing.T) {
	f := newBookingFixture()

	first, err := f.svc.Book(context.Background(), patientPrincipal("pat-1"), bookingRequest("pat-1", "09:00"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(context.Background(), patientPrincipal("pat-1"), first.ID))

	second, err := f.svc.Book(context.Background(), patientPrincipal("pat-2"), bookingRequest("pat-2", "09:00"))
	require.NoError(t, err)
	// The cancelled appointment still counts toward the sequence.
	assert.Equal(t, "CARD-20250602-0002", second.TokenNumber)
}

func TestBook_ValidatesInput(t *testing.T) {
	f := newBookingFixture()
	principal := patientPrincipal("pat-1")

	t.Run("bad date", func(t *testing.T) {
		req := bookingRequest("pat-1", "09:00")
		req.Date = "02-06-2025"
		_, err := f.svc.Book(context.Background(), principal, req)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("bad time slot", func(t *testing.T) {
		req := bookingRequest("pat-1", "9am")
		_, err := f.svc.Book(context.Background(), principal, req)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("missing reason", func(t *testing.T) {
		req := bookingRequest("pat-1", "09:00")
		req.Reason = ""
		_, err := f.svc.Book(context.Background(), principal, req)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("proxy booking without relation", func(t *testing.T) {
		req := bookingRequest("pat-1", "09:00")
		req.IsForSelf = false
		_, err := f.svc.Book(context.Background(), principal, req)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("unknown doctor", func(t *testing.T) {
		req := bookingRequest("pat-1", "09:00")
		req.DoctorID = "missing"
		_, err := f.svc.Book(context.Background(), principal, req)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestBook_ForbidsBookingForAnotherPatient(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Book(context.Background(), patientPrincipal("pat-1"), bookingRequest("pat-2", "09:00"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	// Admins may book on behalf of any patient.
	admin := auth.Principal{UserID: "admin-1", Role: entities.RoleAdmin}
	_, err = f.svc.Book(context.Background(), admin, bookingRequest("pat-2", "09:00"))
	assert.NoError(t, err)
}

func TestBook_EnforcesConfiguredHours(t *testing.T) {
	f := newBookingFixture(&entities.DoctorAvailability{
		ID: "av-1", DoctorID: "doc-1", DayOfWeek: entities.Monday,
		StartTime: "10:00", EndTime: "13:00", IsAvailable: true,
	})

	_, err := f.svc.Book(context.Background(), patientPrincipal("pat-1"), bookingRequest("pat-1", "09:00"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = f.svc.Book(context.Background(), patientPrincipal("pat-1"), bookingRequest("pat-1", "10:30"))
	assert.NoError(t, err)
}

func TestBook_AnyTimeAcceptedWithoutConfiguredWindow(t *testing.T) {
	f := newBookingFixture()

	// The 09:00-17:00 default applies to slot listing only.
	_, err := f.svc.Book(context.Background(), patientPrincipal("pat-1"), bookingRequest("pat-1", "20:00"))
	assert.NoError(t, err)
}

func TestCancel_DoesNotRenumberLaterPositions(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	var booked []*entities.Appointment
	for i := 0; i < 3; i++ {
		patient := fmt.Sprintf("pat-%d", i+1)
		slot := fmt.Sprintf("09:%d0", i)
		appointment, err := f.svc.Book(ctx, patientPrincipal(patient), bookingRequest(patient, slot))
		require.NoError(t, err)
		booked = append(booked, appointment)
	}

	require.NoError(t, f.svc.Cancel(ctx, patientPrincipal("pat-2"), booked[1].ID))

	cancelled, err := f.appointments.GetByID(ctx, booked[1].ID)
	require.NoError(t, err)
	assert.Equal(t, entities.AppointmentStatusCancelled, cancelled.Status)
	assert.Equal(t, 2, cancelled.QueuePosition, "cancellation keeps the original position")

	third, err := f.appointments.GetByID(ctx, booked[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, third.QueuePosition, "later positions are never renumbered")

	status, err := f.queueRepo.Get(ctx, "doc-1", monday)
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalTokens, "cancelled appointments leave the queue")
}

func TestCancel_Rules(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	appointment, err := f.svc.Book(ctx, patientPrincipal("pat-1"), bookingRequest("pat-1", "09:00"))
	require.NoError(t, err)

	t.Run("other patients cannot cancel", func(t *testing.T) {
		err := f.svc.Cancel(ctx, patientPrincipal("pat-2"), appointment.ID)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})

	t.Run("unknown appointment", func(t *testing.T) {
		err := f.svc.Cancel(ctx, patientPrincipal("pat-1"), "missing")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("cancel twice", func(t *testing.T) {
		require.NoError(t, f.svc.Cancel(ctx, patientPrincipal("pat-1"), appointment.ID))
		err := f.svc.Cancel(ctx, patientPrincipal("pat-1"), appointment.ID)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestReschedule_MovesSlotKeepingToken(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	appointment, err := f.svc.Book(ctx, patientPrincipal("pat-1"), bookingRequest("pat-1", "09:00"))
	require.NoError(t, err)
	token := appointment.TokenNumber

	queueEventsBefore := len(f.eventBus.eventsOn(providers.DoctorQueueChannel("doc-1")))

	tuesday := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	moved, err := f.svc.Reschedule(ctx, patientPrincipal("pat-1"), appointment.ID, "2025-06-03", "11:00")
	require.NoError(t, err)

	assert.Equal(t, "11:00", moved.TimeSlot)
	assert.Equal(t, tuesday, moved.Date)
	assert.Equal(t, token, moved.TokenNumber, "token survives a reschedule")
	assert.Equal(t, 1, moved.QueuePosition)
	assert.Equal(t, entities.AppointmentStatusScheduled, moved.Status)

	// Both days' queue aggregates reflect the move.
	oldStatus, err := f.queueRepo.Get(ctx, "doc-1", monday)
	require.NoError(t, err)
	require.NotNil(t, oldStatus)
	assert.Zero(t, oldStatus.TotalTokens)

	newStatus, err := f.queueRepo.Get(ctx, "doc-1", tuesday)
	require.NoError(t, err)
	require.NotNil(t, newStatus)
	assert.Equal(t, 1, newStatus.TotalTokens)

	queueEventsAfter := len(f.eventBus.eventsOn(providers.DoctorQueueChannel("doc-1")))
	assert.Equal(t, queueEventsBefore+1, queueEventsAfter, "reschedule signals the queue room")

	patientEvents := f.eventBus.eventsOn(providers.PatientAppointmentChannel("pat-1"))
	assert.Contains(t, patientEvents[len(patientEvents)-1].Message, "rescheduled")
}

func TestReschedule_ResetsConfirmedToScheduled(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	appointment, err := f.svc.Book(ctx, patientPrincipal("pat-1"), bookingRequest("pat-1", "09:00"))
	require.NoError(t, err)
	appointment.Status = entities.AppointmentStatusConfirmed
	require.NoError(t, f.appointments.Update(ctx, appointment))

	moved, err := f.svc.Reschedule(ctx, patientPrincipal("pat-1"), appointment.ID, "2025-06-02", "10:00")
	require.NoError(t, err)
	assert.Equal(t, entities.AppointmentStatusScheduled, moved.Status)
}

func TestReschedule_ExcludesSelfFromConflictCheck(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	appointment, err := f.svc.Book(ctx, patientPrincipal("pat-1"), bookingRequest("pat-1", "09:00"))
	require.NoError(t, err)

	// Rescheduling onto its own slot is not a conflict.
	_, err = f.svc.Reschedule(ctx, patientPrincipal("pat-1"), appointment.ID, "2025-06-02", "09:00")
	assert.NoError(t, err)
}

func TestReschedule_Rejections(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	appointment, err := f.svc.Book(ctx, patientPrincipal("pat-1"), bookingRequest("pat-1", "09:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, patientPrincipal("pat-2"), bookingRequest("pat-2", "09:30"))
	require.NoError(t, err)

	t.Run("target slot occupied", func(t *testing.T) {
		_, err := f.svc.Reschedule(ctx, patientPrincipal("pat-1"), appointment.ID, "2025-06-02", "09:30")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})

	t.Run("only the owner may reschedule", func(t *testing.T) {
		_, err := f.svc.Reschedule(ctx, patientPrincipal("pat-2"), appointment.ID, "2025-06-02", "10:00")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})

	t.Run("in-progress appointments stay put", func(t *testing.T) {
		appointment.Status = entities.AppointmentStatusInProgress
		require.NoError(t, f.appointments.Update(ctx, appointment))
		_, err := f.svc.Reschedule(ctx, patientPrincipal("pat-1"), appointment.ID, "2025-06-02", "10:00")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}
