package mail

import (
	"fmt"
	"sync"

	"github.com/lukasz-zimnoch/forex"
	"gopkg.in/mail.v2"
)

const subjectPrefix = "Forex notification"

type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Recipient string
}

// EventService mails every event to the configured recipient. Delivery
// happens in the background; Close waits for pending deliveries.
type EventService struct {
	config  *Config
	dialer  *mail.Dialer
	logger  forex.Logger
	pending sync.WaitGroup
}

func NewEventService(config *Config, logger forex.Logger) *EventService {
	return &EventService{
		config: config,
		dialer: mail.NewDialer(
			config.Host,
			config.Port,
			config.Username,
			config.Password,
		),
		logger: logger.WithField("component", "mail"),
	}
}

func (es *EventService) Publish(event *forex.Event) {
	message := es.message(event)

	es.pending.Add(1)
	go func() {
		defer es.pending.Done()

		if err := es.dialer.DialAndSend(message); err != nil {
			es.logger.Errorf("could not send email: [%v]", err)
			return
		}

		es.logger.Infof("sent trade notification to [%v]", es.config.Recipient)
	}()
}

func (es *EventService) Close() error {
	es.pending.Wait()
	return nil
}

func (es *EventService) message(event *forex.Event) *mail.Message {
	message := mail.NewMessage()
	message.SetHeader("From", es.config.Username)
	message.SetHeader("To", es.config.Recipient)
	message.SetHeader(
		"Subject",
		fmt.Sprintf("%v: %v", subjectPrefix, event.Subject),
	)
	message.SetBody(
		"text/plain",
		fmt.Sprintf("Account: %v\n\n%v", event.Username, event.Payload),
	)

	return message
}
