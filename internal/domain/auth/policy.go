package auth

import (
	"github.com/arogya-hms/backend/internal/domain/entities"
)

// Principal is the authenticated actor supplied by the session layer. The
// role is trusted as-is; every capability decision in the services goes
// through the methods below rather than ad-hoc role comparisons.
type Principal struct {
	UserID string
	Role   entities.Role
}

// IsPatient reports whether the principal is a patient.
func (p Principal) IsPatient() bool { return p.Role == entities.RolePatient }

// IsDoctor reports whether the principal is a doctor.
func (p Principal) IsDoctor() bool { return p.Role == entities.RoleDoctor }

// IsAdmin reports whether the principal is an admin.
func (p Principal) IsAdmin() bool { return p.Role == entities.RoleAdmin }

// CanBookAppointment reports whether the principal may create appointments
// for the given patient. Patients book for themselves (and their family
// members, which ride on their own patient ID); admins may book on behalf
// of any patient.
func (p Principal) CanBookAppointment(patientID string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.IsPatient() && p.UserID == patientID
}

// CanCancelAppointment reports whether the principal may cancel the
// appointment: the owning patient or an admin.
func (p Principal) CanCancelAppointment(a *entities.Appointment) bool {
	if p.IsAdmin() {
		return true
	}
	return p.IsPatient() && p.UserID == a.PatientID
}

// CanRescheduleAppointment reports whether the principal may move the
// appointment to a new slot. Only the owning patient may reschedule.
func (p Principal) CanRescheduleAppointment(a *entities.Appointment) bool {
	return p.IsPatient() && p.UserID == a.PatientID
}

// CanViewAppointment reports whether the principal may read the
// appointment.
func (p Principal) CanViewAppointment(a *entities.Appointment, doctorUserID string) bool {
	if p.IsAdmin() {
		return true
	}
	if p.IsDoctor() {
		return p.UserID == doctorUserID
	}
	return p.UserID == a.PatientID
}

// CanRecordConsultation reports whether the principal is the doctor who
// owns the appointment and may start or end its consultation.
func (p Principal) CanRecordConsultation(doctorUserID string) bool {
	return p.IsDoctor() && p.UserID == doctorUserID
}

// CanManageDoctorSchedule reports whether the principal may edit the
// availability windows of the doctor owned by doctorUserID.
func (p Principal) CanManageDoctorSchedule(doctorUserID string) bool {
	return p.IsDoctor() && p.UserID == doctorUserID
}

// CanRegisterDoctors reports whether the principal may register and verify
// doctors.
func (p Principal) CanRegisterDoctors() bool { return p.IsAdmin() }

// CanListUsers reports whether the principal may list user accounts.
func (p Principal) CanListUsers() bool { return p.IsAdmin() }

// CanViewMedicalRecord reports whether the principal may read a medical
// record: the patient it belongs to, the doctor who wrote it, or an admin.
func (p Principal) CanViewMedicalRecord(r *entities.MedicalRecord, doctorUserID string) bool {
	if p.IsAdmin() {
		return true
	}
	if p.IsDoctor() {
		return p.UserID == doctorUserID
	}
	return p.UserID == r.PatientID
}

// CanManageFamilyMembers reports whether the principal may manage the
// family members of the given patient account.
func (p Principal) CanManageFamilyMembers(ownerUserID string) bool {
	return p.IsPatient() && p.UserID == ownerUserID
}
