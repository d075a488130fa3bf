package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arogya-hms/backend/internal/domain/auth"
	"github.com/arogya-hms/backend/internal/domain/entities"
)

var (
	patient = auth.Principal{UserID: "pat-1", Role: entities.RolePatient}
	doctor  = auth.Principal{UserID: "user-doc-1", Role: entities.RoleDoctor}
	admin   = auth.Principal{UserID: "adm-1", Role: entities.RoleAdmin}
)

func ownAppointment() *entities.Appointment {
	return &entities.Appointment{ID: "appt-1", PatientID: "pat-1", DoctorID: "doc-1"}
}

func TestCanBookAppointment(t *testing.T) {
	assert.True(t, patient.CanBookAppointment("pat-1"))
	assert.False(t, patient.CanBookAppointment("pat-2"))
	assert.True(t, admin.CanBookAppointment("pat-2"))
	assert.False(t, doctor.CanBookAppointment("pat-1"))
}

func TestCanCancelAppointment(t *testing.T) {
	appt := ownAppointment()

	assert.True(t, patient.CanCancelAppointment(appt))
	assert.True(t, admin.CanCancelAppointment(appt))

	other := auth.Principal{UserID: "pat-2", Role: entities.RolePatient}
	assert.False(t, other.CanCancelAppointment(appt))
	assert.False(t, doctor.CanCancelAppointment(appt))
}

func TestCanRescheduleAppointment(t *testing.T) {
	appt := ownAppointment()

	assert.True(t, patient.CanRescheduleAppointment(appt))
	// Unlike cancel, reschedule is owner-only.
	assert.False(t, admin.CanRescheduleAppointment(appt))
	assert.False(t, doctor.CanRescheduleAppointment(appt))
}

func TestCanViewAppointment(t *testing.T) {
	appt := ownAppointment()

	assert.True(t, patient.CanViewAppointment(appt, "user-doc-1"))
	assert.True(t, doctor.CanViewAppointment(appt, "user-doc-1"))
	assert.True(t, admin.CanViewAppointment(appt, "user-doc-1"))

	otherDoctor := auth.Principal{UserID: "user-doc-2", Role: entities.RoleDoctor}
	assert.False(t, otherDoctor.CanViewAppointment(appt, "user-doc-1"))

	otherPatient := auth.Principal{UserID: "pat-2", Role: entities.RolePatient}
	assert.False(t, otherPatient.CanViewAppointment(appt, "user-doc-1"))
}

func TestCanRecordConsultation(t *testing.T) {
	assert.True(t, doctor.CanRecordConsultation("user-doc-1"))
	assert.False(t, doctor.CanRecordConsultation("user-doc-2"))
	assert.False(t, admin.CanRecordConsultation("user-doc-1"))
	assert.False(t, patient.CanRecordConsultation("user-doc-1"))
}

func TestCanManageDoctorSchedule(t *testing.T) {
	assert.True(t, doctor.CanManageDoctorSchedule("user-doc-1"))
	assert.False(t, doctor.CanManageDoctorSchedule("user-doc-2"))
	assert.False(t, admin.CanManageDoctorSchedule("user-doc-1"))
}

func TestAdminOnlyCapabilities(t *testing.T) {
	assert.True(t, admin.CanRegisterDoctors())
	assert.True(t, admin.CanListUsers())
	assert.False(t, doctor.CanRegisterDoctors())
	assert.False(t, patient.CanListUsers())
}

func TestCanViewMedicalRecord(t *testing.T) {
	record := &entities.MedicalRecord{ID: "rec-1", PatientID: "pat-1", DoctorID: "doc-1"}

	assert.True(t, patient.CanViewMedicalRecord(record, "user-doc-1"))
	assert.True(t, doctor.CanViewMedicalRecord(record, "user-doc-1"))
	assert.True(t, admin.CanViewMedicalRecord(record, "user-doc-1"))

	otherPatient := auth.Principal{UserID: "pat-2", Role: entities.RolePatient}
	assert.False(t, otherPatient.CanViewMedicalRecord(record, "user-doc-1"))

	otherDoctor := auth.Principal{UserID: "user-doc-2", Role: entities.RoleDoctor}
	assert.False(t, otherDoctor.CanViewMedicalRecord(record, "user-doc-1"))
}

func TestCanManageFamilyMembers(t *testing.T) {
	assert.True(t, patient.CanManageFamilyMembers("pat-1"))
	assert.False(t, patient.CanManageFamilyMembers("pat-2"))
	assert.False(t, admin.CanManageFamilyMembers("pat-1"))
}
