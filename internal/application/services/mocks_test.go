package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/repositories"
	apperrors "github.com/arogya-hms/backend/pkg/errors"
)

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func statusIn(status entities.AppointmentStatus, statuses []entities.AppointmentStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// fakeAppointmentRepo is an in-memory AppointmentRepository with the same
// query semantics as the SQL adapter.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[string]*entities.Appointment
	createErr    error
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[string]*entities.Appointment)}
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, appointment *entities.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appointments[appointment.ID] = appointment
	return nil
}

func (f *fakeAppointmentRepo) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appointment, ok := f.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("appointment not found")
	}
	return appointment, nil
}

func (f *fakeAppointmentRepo) Update(ctx context.Context, appointment *entities.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appointments[appointment.ID]; !ok {
		return apperrors.NewNotFoundError("appointment not found")
	}
	f.appointments[appointment.ID] = appointment
	return nil
}

func (f *fakeAppointmentRepo) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.Appointment
	for _, a := range f.appointments {
		if a.PatientID != patientID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (f *fakeAppointmentRepo) ListByDoctorAndDate(ctx context.Context, doctorID string, date time.Time, statuses ...entities.AppointmentStatus) ([]*entities.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.Appointment
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && sameDate(a.Date, date) && statusIn(a.Status, statuses) {
			result = append(result, a)
		}
	}
	for i := range result {
		for j := i + 1; j < len(result); j++ {
			if result[j].QueuePosition < result[i].QueuePosition {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (f *fakeAppointmentRepo) CountByDepartmentAndDate(ctx context.Context, departmentID string, date time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.appointments {
		if a.DepartmentID == departmentID && sameDate(a.Date, date) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAppointmentRepo) FindBySlot(ctx context.Context, doctorID string, date time.Time, timeSlot string, excludeID string, statuses ...entities.AppointmentStatus) (*entities.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appointments {
		if a.ID == excludeID {
			continue
		}
		if a.DoctorID == doctorID && sameDate(a.Date, date) && a.TimeSlot == timeSlot && statusIn(a.Status, statuses) {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAppointmentRepo) ListBookedSlots(ctx context.Context, doctorID string, date time.Time, statuses ...entities.AppointmentStatus) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var slots []string
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && sameDate(a.Date, date) && statusIn(a.Status, statuses) {
			slots = append(slots, a.TimeSlot)
		}
	}
	return slots, nil
}

func (f *fakeAppointmentRepo) CountByDoctorDateAndStatus(ctx context.Context, doctorID string, date time.Time, statuses ...entities.AppointmentStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && sameDate(a.Date, date) && statusIn(a.Status, statuses) {
			count++
		}
	}
	return count, nil
}

type fakeDoctorRepo struct {
	mu      sync.Mutex
	doctors map[string]*entities.Doctor
}

func newFakeDoctorRepo(doctors ...*entities.Doctor) *fakeDoctorRepo {
	repo := &fakeDoctorRepo{doctors: make(map[string]*entities.Doctor)}
	for _, d := range doctors {
		repo.doctors[d.ID] = d
	}
	return repo
}

func (f *fakeDoctorRepo) Create(ctx context.Context, doctor *entities.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doctors[doctor.ID] = doctor
	return nil
}

func (f *fakeDoctorRepo) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doctors[id], nil
}

func (f *fakeDoctorRepo) GetByUserID(ctx context.Context, userID string) (*entities.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.doctors {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDoctorRepo) Update(ctx context.Context, doctor *entities.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doctors[doctor.ID] = doctor
	return nil
}

func (f *fakeDoctorRepo) List(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.Doctor
	for _, d := range f.doctors {
		if filter.DepartmentID != "" && d.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.VerifiedOnly && (!d.IsVerified || !d.IsAvailable) {
			continue
		}
		if filter.PendingVerification && d.IsVerified {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

type fakeDepartmentRepo struct {
	departments map[string]*entities.Department
}

func newFakeDepartmentRepo(departments ...*entities.Department) *fakeDepartmentRepo {
	repo := &fakeDepartmentRepo{departments: make(map[string]*entities.Department)}
	for _, d := range departments {
		repo.departments[d.ID] = d
	}
	return repo
}

func (f *fakeDepartmentRepo) Create(ctx context.Context, department *entities.Department) error {
	f.departments[department.ID] = department
	return nil
}

func (f *fakeDepartmentRepo) GetByID(ctx context.Context, id string) (*entities.Department, error) {
	return f.departments[id], nil
}

func (f *fakeDepartmentRepo) GetByCode(ctx context.Context, code string) (*entities.Department, error) {
	for _, d := range f.departments {
		if d.Code == code {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDepartmentRepo) ListActive(ctx context.Context) ([]*entities.Department, error) {
	var result []*entities.Department
	for _, d := range f.departments {
		if d.IsActive {
			result = append(result, d)
		}
	}
	return result, nil
}

type fakeAvailabilityRepo struct {
	windows map[string]*entities.DoctorAvailability
}

func newFakeAvailabilityRepo(windows ...*entities.DoctorAvailability) *fakeAvailabilityRepo {
	repo := &fakeAvailabilityRepo{windows: make(map[string]*entities.DoctorAvailability)}
	for _, w := range windows {
		repo.windows[w.DoctorID+"/"+string(w.DayOfWeek)] = w
	}
	return repo
}

func (f *fakeAvailabilityRepo) Upsert(ctx context.Context, availability *entities.DoctorAvailability) error {
	f.windows[availability.DoctorID+"/"+string(availability.DayOfWeek)] = availability
	return nil
}

func (f *fakeAvailabilityRepo) GetByDoctorAndDay(ctx context.Context, doctorID string, day entities.Weekday) (*entities.DoctorAvailability, error) {
	window := f.windows[doctorID+"/"+string(day)]
	if window != nil && !window.IsAvailable {
		return nil, nil
	}
	return window, nil
}

func (f *fakeAvailabilityRepo) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.DoctorAvailability, error) {
	var result []*entities.DoctorAvailability
	for _, w := range f.windows {
		if w.DoctorID == doctorID {
			result = append(result, w)
		}
	}
	return result, nil
}

type fakeQueueRepo struct {
	mu       sync.Mutex
	statuses map[string]*entities.QueueStatus
	upserts  int
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{statuses: make(map[string]*entities.QueueStatus)}
}

func queueKey(doctorID string, date time.Time) string {
	return doctorID + "/" + date.Format("2006-01-02")
}

func (f *fakeQueueRepo) Get(ctx context.Context, doctorID string, date time.Time) (*entities.QueueStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[queueKey(doctorID, date)], nil
}

func (f *fakeQueueRepo) Upsert(ctx context.Context, status *entities.QueueStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[queueKey(status.DoctorID, status.Date)] = status
	f.upserts++
	return nil
}

func (f *fakeQueueRepo) ListByDate(ctx context.Context, date time.Time) ([]*entities.QueueStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.QueueStatus
	for _, s := range f.statuses {
		if sameDate(s.Date, date) {
			result = append(result, s)
		}
	}
	return result, nil
}

type fakeRecordRepo struct {
	mu        sync.Mutex
	records   []*entities.MedicalRecord
	createErr error
}

func newFakeRecordRepo() *fakeRecordRepo { return &fakeRecordRepo{} }

func (f *fakeRecordRepo) Create(ctx context.Context, record *entities.MedicalRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeRecordRepo) GetByID(ctx context.Context, id string) (*entities.MedicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordRepo) ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.MedicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.MedicalRecord
	for _, r := range f.records {
		if r.PatientID == patientID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeRecordRepo) ListByDoctor(ctx context.Context, doctorID string, limit int) ([]*entities.MedicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.MedicalRecord
	for _, r := range f.records {
		if r.DoctorID == doctorID {
			result = append(result, r)
		}
	}
	return result, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entities.User
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*entities.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.User
	for _, u := range f.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

type fakeFamilyRepo struct {
	mu      sync.Mutex
	members map[string]*entities.FamilyMember
}

func newFakeFamilyRepo() *fakeFamilyRepo {
	return &fakeFamilyRepo{members: make(map[string]*entities.FamilyMember)}
}

func (f *fakeFamilyRepo) Create(ctx context.Context, member *entities.FamilyMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[member.ID] = member
	return nil
}

func (f *fakeFamilyRepo) GetByID(ctx context.Context, id string) (*entities.FamilyMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[id], nil
}

func (f *fakeFamilyRepo) ListByUser(ctx context.Context, userID string) ([]*entities.FamilyMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.FamilyMember
	for _, m := range f.members {
		if m.UserID == userID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (f *fakeFamilyRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.members[id]; !ok {
		return apperrors.NewNotFoundError("family member not found")
	}
	delete(f.members, id)
	return nil
}

// fakeEventBus records published events per channel.
type fakeEventBus struct {
	mu        sync.Mutex
	published map[string][]*entities.QueueEvent
}

func newFakeEventBus() *fakeEventBus {
	return &fakeEventBus{published: make(map[string][]*entities.QueueEvent)}
}

func (f *fakeEventBus) Publish(ctx context.Context, channel string, event *entities.QueueEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[channel] = append(f.published[channel], event)
	return nil
}

func (f *fakeEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error) {
	ch := make(chan *entities.QueueEvent)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (f *fakeEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (f *fakeEventBus) Close() error { return nil }

func (f *fakeEventBus) eventsOn(channel string) []*entities.QueueEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entities.QueueEvent(nil), f.published[channel]...)
}
