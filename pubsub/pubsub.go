package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
)

type Client struct {
	client             *pubsub.Client
	notificationsTopic *pubsub.Topic
}

func NewClient(
	ctx context.Context,
	projectID,
	notificationsTopicID string,
) (*Client, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("could not create pubsub client: [%w]", err)
	}

	return &Client{
		client:             client,
		notificationsTopic: client.Topic(notificationsTopicID),
	}, nil
}

// Close flushes pending publishes before closing the connection.
func (c *Client) Close() error {
	c.notificationsTopic.Stop()
	return c.client.Close()
}
