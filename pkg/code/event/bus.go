package event

import (
	"context"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	programEventTopic  = "charity:program_event"
	accountUpdateTopic = "charity:account_update"
)

// Bus is an in process Publisher and Subscriber
type Bus struct {
	log *logrus.Entry
	bus evbus.Bus
}

func NewBus() *Bus {
	return &Bus{
		log: logrus.StandardLogger().WithField("type", "event/Bus"),
		bus: evbus.New(),
	}
}

// PublishProgramEvent implements Publisher.PublishProgramEvent
func (b *Bus) PublishProgramEvent(ctx context.Context, event *ProgramEvent) error {
	if event == nil || event.Event == nil {
		return errors.New("program event is required")
	}

	if event.Id == uuid.Nil {
		event.Id = uuid.New()
	}
	if event.PublishedAt.IsZero() {
		event.PublishedAt = time.Now()
	}

	b.log.WithFields(logrus.Fields{
		"method":  "PublishProgramEvent",
		"id":      event.Id.String(),
		"name":    event.Event.Name(),
		"index":   event.Index,
		"sig":     event.Signature,
		"handled": b.bus.HasCallback(programEventTopic),
	}).Trace("publishing program event")

	b.bus.Publish(programEventTopic, ctx, event)
	return nil
}

// PublishAccountUpdate implements Publisher.PublishAccountUpdate
func (b *Bus) PublishAccountUpdate(ctx context.Context, update *AccountUpdate) error {
	if update == nil || len(update.Address) == 0 {
		return errors.New("account update is required")
	}

	if update.Id == uuid.Nil {
		update.Id = uuid.New()
	}
	if update.PublishedAt.IsZero() {
		update.PublishedAt = time.Now()
	}

	b.log.WithFields(logrus.Fields{
		"method":  "PublishAccountUpdate",
		"id":      update.Id.String(),
		"account": update.Address,
		"version": update.Version,
		"closed":  update.Closed,
	}).Trace("publishing account update")

	b.bus.Publish(accountUpdateTopic, ctx, update)
	return nil
}

// SubscribeProgramEvents implements Subscriber.SubscribeProgramEvents
func (b *Bus) SubscribeProgramEvents(handler ProgramEventHandler) error {
	if handler == nil {
		return errors.New("handler is required")
	}
	return errors.Wrap(b.bus.Subscribe(programEventTopic, handler), "error subscribing to program events")
}

// UnsubscribeProgramEvents implements Subscriber.UnsubscribeProgramEvents
func (b *Bus) UnsubscribeProgramEvents(handler ProgramEventHandler) error {
	return errors.Wrap(b.bus.Unsubscribe(programEventTopic, handler), "error unsubscribing from program events")
}

// SubscribeAccountUpdates implements Subscriber.SubscribeAccountUpdates
func (b *Bus) SubscribeAccountUpdates(handler AccountUpdateHandler) error {
	if handler == nil {
		return errors.New("handler is required")
	}
	return errors.Wrap(b.bus.Subscribe(accountUpdateTopic, handler), "error subscribing to account updates")
}

// UnsubscribeAccountUpdates implements Subscriber.UnsubscribeAccountUpdates
func (b *Bus) UnsubscribeAccountUpdates(handler AccountUpdateHandler) error {
	return errors.Wrap(b.bus.Unsubscribe(accountUpdateTopic, handler), "error unsubscribing from account updates")
}
