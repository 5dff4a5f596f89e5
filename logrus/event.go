package logrus

import (
	"github.com/lukasz-zimnoch/forex"
)

// EventService writes events to the log instead of delivering them.
type EventService struct {
	logger forex.Logger
}

func NewEventService(logger forex.Logger) *EventService {
	return &EventService{logger.WithField("component", "events")}
}

func (es *EventService) Publish(event *forex.Event) {
	es.logger.WithField("username", event.Username).Infof(
		"%v\n%v",
		event.Subject,
		event.Payload,
	)
}
