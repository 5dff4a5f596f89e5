package uuid

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lukasz-zimnoch/forex"
)

// IDService issues random (version 4) UUIDs for trades and sessions.
type IDService struct{}

func NewIDService() *IDService {
	return &IDService{}
}

func (ids *IDService) NewID() forex.ID {
	return uuid.New()
}

func (ids *IDService) NewIDFromString(id string) (forex.ID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("could not parse id [%v]: [%w]", id, err)
	}

	return parsed, nil
}
