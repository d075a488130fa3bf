package providers

import (
	"context"

	"github.com/arogya-hms/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to queue
// events. Delivery is fan-out, at-most-once, best-effort: a slow
// subscriber's events are dropped rather than buffered without bound.
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.QueueEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelDoctorQueuePrefix is the prefix for per-doctor queue
	// rooms
	EventChannelDoctorQueuePrefix = "queue:"

	// EventChannelPatientPrefix is the prefix for per-patient appointment
	// rooms
	EventChannelPatientPrefix = "appointments:"
)

// DoctorQueueChannel returns the channel name for a doctor's queue room.
// Routing is by identifier only; no authorization is enforced on the
// channel itself.
func DoctorQueueChannel(doctorID string) string {
	return EventChannelDoctorQueuePrefix + doctorID
}

// PatientAppointmentChannel returns the channel name for a patient's
// appointment room.
func PatientAppointmentChannel(patientID string) string {
	return EventChannelPatientPrefix + patientID
}
