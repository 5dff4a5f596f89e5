package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/lukasz-zimnoch/forex"
)

const publishConfirmTimeout = 30 * time.Second

type EventService struct {
	client *Client
	logger forex.Logger
}

func NewEventService(client *Client, logger forex.Logger) *EventService {
	return &EventService{client, logger.WithField("component", "pubsub")}
}

func (es *EventService) Publish(event *forex.Event) {
	es.publishOnNotificationsTopic(context.Background(), event)
}

func (es *EventService) publishOnNotificationsTopic(
	ctx context.Context,
	event *forex.Event,
) {
	topicLogger := es.logger.WithField("topic", "notifications")

	messageData, err := json.Marshal(newNotificationEvent(event))
	if err != nil {
		topicLogger.Errorf("could not marshal trade event: [%v]", err)
		return
	}

	result := es.client.notificationsTopic.Publish(ctx, &pubsub.Message{
		Data: messageData,
		Attributes: map[string]string{
			"username": event.Username,
		},
	})

	go func() {
		confirmCtx, cancelConfirmCtx := context.WithTimeout(
			ctx,
			publishConfirmTimeout,
		)
		defer cancelConfirmCtx()

		id, err := result.Get(confirmCtx)
		if err != nil {
			topicLogger.Errorf("could not publish trade event: [%v]", err)
			return
		}

		topicLogger.Infof("published trade event with ID: [%v]", id)
	}()
}

type notificationEvent struct {
	Username string
	Subject  string
	Payload  string
}

func newNotificationEvent(event *forex.Event) *notificationEvent {
	return &notificationEvent{
		Username: event.Username,
		Subject:  event.Subject,
		Payload:  event.Payload,
	}
}
