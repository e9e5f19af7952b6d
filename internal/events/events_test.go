package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	evt := New(TypeSlotLocked)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, TypeSlotLocked, evt.Type)
	assert.False(t, evt.OccurredAt.IsZero())

	other := New(TypeSlotLocked)
	assert.NotEqual(t, evt.ID, other.ID)
}

func TestFanout_DeliversToAllSinks(t *testing.T) {
	a := NewMemorySink()
	b := NewMemorySink()
	fanout := NewFanout(a)
	fanout.Add(b)

	evt := New(TypeBookingCreated)
	evt.CourtID = "court-1"

	require.NoError(t, fanout.Publish(context.Background(), evt))

	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)
	assert.Equal(t, "court-1", b.Events()[0].CourtID)
}

func TestFanout_OneFailureDoesNotStopDelivery(t *testing.T) {
	broken := NewMemorySink()
	broken.FailWith(errors.New("kafka down"))
	healthy := NewMemorySink()

	fanout := NewFanout(broken, healthy)

	err := fanout.Publish(context.Background(), New(TypeSlotUnlocked))
	assert.Error(t, err)
	assert.Len(t, healthy.Events(), 1, "healthy sink must still receive the event")
}

func TestMemorySink_OfType(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, sink.Publish(ctx, New(TypeSlotLocked)))
	require.NoError(t, sink.Publish(ctx, New(TypeSlotUnlocked)))
	require.NoError(t, sink.Publish(ctx, New(TypeSlotLocked)))

	assert.Len(t, sink.OfType(TypeSlotLocked), 2)
	assert.Len(t, sink.OfType(TypeBookingCreated), 0)
}
