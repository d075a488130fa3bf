//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arogya-hms/backend/internal/adapters/events"
	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/providers"
)

func TestRedisEventBusFanout(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.DoctorQueueChannel("doc-redis-1")
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := &entities.QueueEvent{
		ID:        uuid.New().String(),
		EventType: entities.QueueEventChanged,
		DoctorID:  "doc-redis-1",
		Timestamp: time.Now().UTC(),
	}

	err = eventBus.Publish(context.Background(), channel, event)
	require.NoError(t, err)

	received1 := waitForQueueEvent(t, sub1)
	received2 := waitForQueueEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, entities.QueueEventChanged, received1.EventType)
	assert.Equal(t, "doc-redis-1", received2.DoctorID)
}

func TestRedisEventBusChannelIsolation(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doctorSub, err := eventBus.Subscribe(ctx, providers.DoctorQueueChannel("doc-a"))
	require.NoError(t, err)
	patientSub, err := eventBus.Subscribe(ctx, providers.PatientAppointmentChannel("pat-a"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	queueEvent := &entities.QueueEvent{
		ID:        uuid.New().String(),
		EventType: entities.QueueEventChanged,
		DoctorID:  "doc-a",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, eventBus.Publish(context.Background(), providers.DoctorQueueChannel("doc-a"), queueEvent))

	appointmentEvent := &entities.QueueEvent{
		ID:        uuid.New().String(),
		EventType: entities.QueueEventAppointment,
		PatientID: "pat-a",
		Message:   "Your appointment is confirmed",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, eventBus.Publish(context.Background(), providers.PatientAppointmentChannel("pat-a"), appointmentEvent))

	gotQueue := waitForQueueEvent(t, doctorSub)
	gotAppointment := waitForQueueEvent(t, patientSub)

	assert.Equal(t, queueEvent.ID, gotQueue.ID)
	assert.Equal(t, appointmentEvent.ID, gotAppointment.ID)
	assert.Equal(t, "Your appointment is confirmed", gotAppointment.Message)

	// Neither subscriber should have received the other channel's event.
	select {
	case extra := <-doctorSub:
		t.Fatalf("doctor subscriber received unexpected event %s", extra.ID)
	case extra := <-patientSub:
		t.Fatalf("patient subscriber received unexpected event %s", extra.ID)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRedisEventBusUnsubscribeStopsDelivery(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.DoctorQueueChannel("doc-unsub")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := eventBus.Subscribe(ctx, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, eventBus.Unsubscribe(context.Background(), channel))

	event := &entities.QueueEvent{
		ID:        uuid.New().String(),
		EventType: entities.QueueEventChanged,
		DoctorID:  "doc-unsub",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, eventBus.Publish(context.Background(), channel, event))

	select {
	case got, ok := <-sub:
		if ok {
			t.Fatalf("received event %s after unsubscribe", got.ID)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func waitForQueueEvent(t *testing.T, ch <-chan *entities.QueueEvent) *entities.QueueEvent {
	t.Helper()
	select {
	case event := <-ch:
		require.NotNil(t, event)
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for queue event")
		return nil
	}
}
