package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryDispatcher_PublishesToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string

	d.Subscribe(EventAccountRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.AccountID)
		return errors.New("first failed")
	})
	d.Subscribe(EventAccountRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.AccountID)
		return nil
	})
	d.Subscribe(EventChannelVerified, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventAccountRegistered, "acc-1", nil))
	assert.ErrorContains(t, err, "first failed")
	assert.Equal(t, []string{"first:acc-1", "second:acc-1"}, calls)
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventDeliveryFailed, "acc-1", DeliveryFailedPayload{Reason: "timeout"})
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, EventDeliveryFailed, e.Type)
}
